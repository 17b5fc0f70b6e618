package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event outcomes used as the "outcome" label of EventsTotal.
const (
	OutcomeHandled      = "handled"
	OutcomeInvalid      = "invalid"
	OutcomeStoreError   = "store_error"
	OutcomeNotFound     = "not_found"
	OutcomeUnknownEvent = "unknown_event"
)

// Metrics collects the relay and coordinator counters.
//
// Usage:
//
//	reg := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(reg)
//	metrics.EventHandled("sendMonitoringRequest", observability.OutcomeHandled)
type Metrics struct {
	// Sockets is the number of sockets attached to the hub.
	Sockets prometheus.Gauge

	// OnlineUsers is the number of distinct users in the presence registry.
	OnlineUsers prometheus.Gauge

	// ActiveSessions is the length of the session tracker.
	ActiveSessions prometheus.Gauge

	// EventsTotal counts inbound events.
	// Labels: event, outcome (handled|invalid|store_error|not_found|unknown_event)
	EventsTotal *prometheus.CounterVec

	// RequestTransitions counts monitoring request state changes.
	// Labels: status (pending|accepted|declined|expired)
	RequestTransitions *prometheus.CounterVec

	// StoreDuration measures Request Store latency in seconds.
	// Labels: operation
	StoreDuration *prometheus.HistogramVec

	// DroppedSends counts outbound frames dropped because a socket was gone or full.
	DroppedSends prometheus.Counter
}

// NewMetrics registers every collector with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Sockets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "workpulse_sockets",
			Help: "Number of websocket connections attached to the hub",
		}),
		OnlineUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "workpulse_online_users",
			Help: "Number of distinct users with at least one live connection",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "workpulse_active_sessions",
			Help: "Number of active monitoring sessions",
		}),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workpulse_events_total",
				Help: "Inbound socket events by name and outcome",
			},
			[]string{"event", "outcome"},
		),
		RequestTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workpulse_monitoring_requests_total",
				Help: "Monitoring request state transitions",
			},
			[]string{"status"},
		),
		StoreDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workpulse_store_duration_seconds",
				Help:    "Request store operation latency in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),
		DroppedSends: factory.NewCounter(prometheus.CounterOpts{
			Name: "workpulse_dropped_sends_total",
			Help: "Outbound frames dropped because the socket was closed or full",
		}),
	}
}

// The helpers below are nil-safe so components can run without metrics.

func (m *Metrics) EventHandled(name, outcome string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) RequestTransition(status string) {
	if m == nil {
		return
	}
	m.RequestTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveStore(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetPresence(onlineUsers int) {
	if m == nil {
		return
	}
	m.OnlineUsers.Set(float64(onlineUsers))
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) SocketOpened() {
	if m == nil {
		return
	}
	m.Sockets.Inc()
}

func (m *Metrics) SocketClosed() {
	if m == nil {
		return
	}
	m.Sockets.Dec()
}

func (m *Metrics) SendDropped() {
	if m == nil {
		return
	}
	m.DroppedSends.Inc()
}
