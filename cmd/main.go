package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tmc/langchaingo/llms/openai"

	"comanda/internal/api"
	"comanda/internal/config"
	"comanda/internal/conversation"
	"comanda/internal/fulfillment"
	"comanda/internal/interpreter"
	"comanda/internal/monitoring"
	"comanda/internal/session"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "", "Path to configuration file")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *metricsPort != 0 {
		cfg.MetricsPort = *metricsPort
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		log.Fatalf("Failed to build menu catalog: %v", err)
	}

	llm, err := openai.New(openai.WithModel(cfg.Interpreter.Model))
	if err != nil {
		log.Fatalf("Failed to initialize OpenAI client: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := monitoring.New(registry)

	store := session.NewStore(cfg.SessionIdleTTL(), session.WithEvictHook(func(s *session.OrderSession) {
		metrics.SessionEvicted()
		log.Printf("session %s evicted in phase %s", s.CallID, s.Phase)
	}))
	go store.Run(ctx, cfg.SweepInterval())

	interp := interpreter.New(llm, catalog, interpreter.Config{
		Model:          cfg.Interpreter.Model,
		Temperature:    cfg.Interpreter.Temperature,
		MaxTokens:      cfg.Interpreter.MaxTokens,
		Timeout:        cfg.InterpreterTimeout(),
		RestaurantName: cfg.Restaurant.Name,
		AgentName:      cfg.Persona.AgentName,
		Address:        cfg.Restaurant.Address,
		Phone:          cfg.Restaurant.Phone,
		PickupEstimate: cfg.Restaurant.PickupEstimate,
		TaxRate:        cfg.Restaurant.TaxRate,
	}, metrics)

	var sink fulfillment.Sink = fulfillment.LogSink{}
	if cfg.POSWebhook != "" {
		sink = fulfillment.NewHTTPSink(cfg.POSWebhook, nil)
	}
	dispatcher := fulfillment.NewDispatcher(sink, metrics)

	controller := conversation.NewController(catalog, interp, dispatcher, cfg.Persona, cfg.Restaurant.TaxRate, cfg.Restaurant.PickupEstimate, metrics)
	server := api.NewServer(store, controller, metrics, cfg.Restaurant.Name, cfg.Restaurant.TaxRate)

	go startMetricsServer(cfg.MetricsPort, registry)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
		cancel()
	}()

	log.Printf("%s voice agent listening on port %d", cfg.Restaurant.Name, cfg.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func startMetricsServer(port int, registry *prometheus.Registry) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
