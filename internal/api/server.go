// Package api exposes the voice agent to the telephony transport. The
// transport is a black box: it delivers one utterance per caller speech
// turn and renders the returned prompt to speech, reopening the microphone
// only while continue_listening is true.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"comanda/internal/conversation"
	"comanda/internal/monitoring"
	"comanda/internal/pricing"
	"comanda/internal/session"
)

// Server is the HTTP surface of the agent.
type Server struct {
	Router *gin.Engine

	store      *session.Store
	controller *conversation.Controller
	metrics    *monitoring.Metrics
	hub        *Hub
	restaurant string
	taxRate    float64
}

// NewServer wires the routes.
func NewServer(store *session.Store, controller *conversation.Controller, metrics *monitoring.Metrics, restaurant string, taxRate float64) *Server {
	s := &Server{
		Router:     gin.Default(),
		store:      store,
		controller: controller,
		metrics:    metrics,
		hub:        NewHub(),
		restaurant: restaurant,
		taxRate:    taxRate,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints.
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "restaurant": s.restaurant})
	})

	calls := s.Router.Group("/calls")
	{
		calls.POST("/:callID/answer", s.AnswerCall)
		calls.POST("/:callID/utterance", s.HandleUtterance)
		calls.POST("/:callID/hangup", s.Hangup)
		calls.GET("/:callID", s.GetSession)
	}

	s.Router.GET("/ops/stream", s.hub.handleWebSocket)
}

// utteranceRequest is one caller speech turn. An absent or empty text is
// a silence (no-input) event.
type utteranceRequest struct {
	Text string `json:"text"`
}

// promptResponse is the action returned to the transport.
type promptResponse struct {
	Prompt            string `json:"prompt"`
	ContinueListening bool   `json:"continue_listening"`
	Phase             string `json:"phase"`
	Voice             string `json:"voice"`
	Language          string `json:"language"`
}

func (s *Server) respond(c *gin.Context, result conversation.Result) {
	persona := s.controller.Persona()
	c.JSON(http.StatusOK, promptResponse{
		Prompt:            result.Prompt,
		ContinueListening: result.ContinueListening,
		Phase:             string(result.Phase),
		Voice:             persona.Voice,
		Language:          persona.Language,
	})
}

// AnswerCall starts a session for a newly connected call and returns the
// greeting.
func (s *Server) AnswerCall(c *gin.Context) {
	callID := c.Param("callID")

	sess, created := s.store.GetOrCreate(callID)
	if created {
		s.metrics.CallStarted()
	}

	sess.Lock()
	result := s.controller.Greet(sess)
	sess.Unlock()

	s.hub.Broadcast(CallEvent{Type: "answered", CallID: callID, Phase: string(result.Phase), Prompt: result.Prompt, Timestamp: time.Now().UTC()})
	s.respond(c, result)
}

// HandleUtterance runs one conversation turn.
func (s *Server) HandleUtterance(c *gin.Context) {
	callID := c.Param("callID")

	// A missing or unreadable body is a silent turn, not a fault.
	var req utteranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Text = ""
	}

	sess, created := s.store.GetOrCreate(callID)
	if created {
		s.metrics.CallStarted()
	}
	s.store.Touch(callID)

	// The turn lock fences concurrent session-query snapshots; turns for
	// one call never contend with each other.
	sess.Lock()
	var result conversation.Result
	eventType := "turn"
	if req.Text == "" {
		eventType = "no_input"
		result = s.controller.HandleNoInput(sess)
	} else {
		result = s.controller.HandleUtterance(c.Request.Context(), sess, req.Text)
	}
	sess.Unlock()

	s.hub.Broadcast(CallEvent{Type: eventType, CallID: callID, Phase: string(result.Phase), Prompt: result.Prompt, Timestamp: time.Now().UTC()})
	s.respond(c, result)
}

// Hangup releases the call's session on disconnect.
func (s *Server) Hangup(c *gin.Context) {
	callID := c.Param("callID")
	s.store.Delete(callID)
	s.hub.Broadcast(CallEvent{Type: "hangup", CallID: callID, Timestamp: time.Now().UTC()})
	c.Status(http.StatusNoContent)
}

// sessionView is the read-only introspection shape of a session.
type sessionView struct {
	*session.OrderSession
	Totals pricing.Totals `json:"totals"`
}

// GetSession exposes a call's order state for operational visibility. It
// reads a snapshot, never the live session a turn may be mutating.
func (s *Server) GetSession(c *gin.Context) {
	callID := c.Param("callID")

	sess, err := s.store.Get(callID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	snap := sess.Snapshot()
	c.JSON(http.StatusOK, sessionView{
		OrderSession: snap,
		Totals:       pricing.ComputeTotals(snap.PricingLines(), s.taxRate),
	})
}
