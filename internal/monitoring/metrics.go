// Package monitoring exposes prometheus metrics for the voice agent.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters for call handling. A nil *Metrics is valid and
// records nothing, so components can be tested without a registry.
type Metrics struct {
	callsStarted       prometheus.Counter
	callsCompleted     prometheus.Counter
	callsEscalated     prometheus.Counter
	turnsTotal         *prometheus.CounterVec
	interpreterErrors  *prometheus.CounterVec
	interpreterLatency prometheus.Histogram
	activeSessions     prometheus.Gauge
	fulfillmentErrors  prometheus.Counter
}

// New creates the metric set and registers it with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		callsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calls_started_total",
			Help: "Number of phone calls answered",
		}),
		callsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calls_completed_total",
			Help: "Number of calls that ended with a confirmed order",
		}),
		callsEscalated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calls_escalated_total",
			Help: "Number of calls handed off to a human",
		}),
		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conversation_turns_total",
				Help: "Conversation turns processed, by resolved intent",
			},
			[]string{"intent"},
		),
		interpreterErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interpreter_errors_total",
				Help: "Language-model failures downgraded to unintelligible, by reason",
			},
			[]string{"reason"},
		),
		interpreterLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "interpreter_latency_seconds",
			Help:    "Time spent waiting on the language model per turn",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Sessions currently held in the store",
		}),
		fulfillmentErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fulfillment_errors_total",
			Help: "Failed deliveries to the order fulfillment sink",
		}),
	}

	reg.MustRegister(
		m.callsStarted,
		m.callsCompleted,
		m.callsEscalated,
		m.turnsTotal,
		m.interpreterErrors,
		m.interpreterLatency,
		m.activeSessions,
		m.fulfillmentErrors,
	)
	return m
}

// CallStarted records a newly answered call.
func (m *Metrics) CallStarted() {
	if m == nil {
		return
	}
	m.callsStarted.Inc()
	m.activeSessions.Inc()
}

// CallCompleted records a confirmed order.
func (m *Metrics) CallCompleted() {
	if m == nil {
		return
	}
	m.callsCompleted.Inc()
}

// CallEscalated records a handoff to a human.
func (m *Metrics) CallEscalated() {
	if m == nil {
		return
	}
	m.callsEscalated.Inc()
}

// SessionEvicted records a session leaving the store.
func (m *Metrics) SessionEvicted() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// TurnResolved records a processed turn and its resolved intent.
func (m *Metrics) TurnResolved(intent string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent).Inc()
}

// InterpreterError records a model failure downgraded to unintelligible.
func (m *Metrics) InterpreterError(reason string) {
	if m == nil {
		return
	}
	m.interpreterErrors.WithLabelValues(reason).Inc()
}

// InterpreterObserve records how long one model round trip took.
func (m *Metrics) InterpreterObserve(d time.Duration) {
	if m == nil {
		return
	}
	m.interpreterLatency.Observe(d.Seconds())
}

// FulfillmentError records a failed delivery to the order sink.
func (m *Metrics) FulfillmentError() {
	if m == nil {
		return
	}
	m.fulfillmentErrors.Inc()
}
