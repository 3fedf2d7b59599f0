// Package fulfillment delivers confirmed orders to an external
// point-of-sale system. Delivery is fire-and-forget: by the time an order
// reaches this package the caller has already been told it is confirmed,
// so failures are retried and alerted on, never surfaced to the call.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"comanda/internal/monitoring"
	"comanda/internal/pricing"
	"comanda/internal/session"
)

// Order is the payload emitted for a confirmed order.
type Order struct {
	OrderID  string               `json:"order_id"`
	CallID   string               `json:"call_id"`
	Lines    []session.OrderLine  `json:"lines"`
	Customer session.CustomerInfo `json:"customer"`
	Totals   pricing.Totals       `json:"totals"`
	PlacedAt time.Time            `json:"placed_at"`
	Source   string               `json:"source"`
}

// NewOrder assembles the fulfillment payload for a completed session.
func NewOrder(sess *session.OrderSession, totals pricing.Totals) Order {
	lines := make([]session.OrderLine, len(sess.Lines))
	copy(lines, sess.Lines)
	return Order{
		OrderID:  uuid.NewString(),
		CallID:   sess.CallID,
		Lines:    lines,
		Customer: sess.Customer,
		Totals:   totals,
		PlacedAt: time.Now().UTC(),
		Source:   "ai_phone_agent",
	}
}

// Sink accepts confirmed orders.
type Sink interface {
	Submit(ctx context.Context, order Order) error
}

// LogSink writes orders to the process log. It is the default when no POS
// endpoint is configured.
type LogSink struct{}

// Submit logs the order.
func (LogSink) Submit(_ context.Context, order Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encoding order %s: %w", order.OrderID, err)
	}
	log.Printf("fulfillment: order confirmed: %s", payload)
	return nil
}

// HTTPSink posts orders to a POS endpoint.
type HTTPSink struct {
	client *http.Client
	url    string
}

// NewHTTPSink creates a sink posting to url. A nil client gets a default
// with a 10s timeout.
func NewHTTPSink(url string, client *http.Client) *HTTPSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSink{client: client, url: url}
}

// Submit posts the order as JSON.
func (s *HTTPSink) Submit(ctx context.Context, order Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encoding order %s: %w", order.OrderID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building POS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting order %s: %w", order.OrderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POS rejected order %s: status %d", order.OrderID, resp.StatusCode)
	}
	return nil
}

// Dispatcher submits orders asynchronously with bounded retries. The
// conversation never waits on it.
type Dispatcher struct {
	sink     Sink
	metrics  *monitoring.Metrics
	attempts int
	backoff  time.Duration
}

// NewDispatcher wraps a sink with retry behavior.
func NewDispatcher(sink Sink, metrics *monitoring.Metrics) *Dispatcher {
	return &Dispatcher{sink: sink, metrics: metrics, attempts: 3, backoff: 2 * time.Second}
}

// Dispatch hands the order to the sink in the background. Each attempt
// gets its own timeout so a slow POS cannot pin a goroutine forever.
func (d *Dispatcher) Dispatch(order Order) {
	go func() {
		var lastErr error
		for attempt := 1; attempt <= d.attempts; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			lastErr = d.sink.Submit(ctx, order)
			cancel()
			if lastErr == nil {
				return
			}
			log.Printf("fulfillment: attempt %d/%d for order %s failed: %v", attempt, d.attempts, order.OrderID, lastErr)
			if attempt < d.attempts {
				time.Sleep(d.backoff * time.Duration(attempt))
			}
		}
		// Out-of-band alerting only; the caller was already confirmed.
		d.metrics.FulfillmentError()
		log.Printf("fulfillment: giving up on order %s: %v", order.OrderID, lastErr)
	}()
}
