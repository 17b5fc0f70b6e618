package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEventHandled(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.EventHandled("sendMonitoringRequest", OutcomeHandled)
	m.EventHandled("sendMonitoringRequest", OutcomeHandled)
	m.EventHandled("respondMonitoringRequest", OutcomeNotFound)

	expected := `
		# HELP workpulse_events_total Inbound socket events by name and outcome
		# TYPE workpulse_events_total counter
		workpulse_events_total{event="respondMonitoringRequest",outcome="not_found"} 1
		workpulse_events_total{event="sendMonitoringRequest",outcome="handled"} 2
	`
	if err := testutil.CollectAndCompare(m.EventsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric value: %v", err)
	}
}

func TestGauges(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SocketOpened()
	m.SocketOpened()
	m.SocketClosed()
	m.SetPresence(3)
	m.SetActiveSessions(2)

	if got := testutil.ToFloat64(m.Sockets); got != 1 {
		t.Errorf("sockets = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.OnlineUsers); got != 3 {
		t.Errorf("online users = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 2 {
		t.Errorf("active sessions = %v, want 2", got)
	}
}

func TestStoreDuration(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveStore("create", time.Now().Add(-10*time.Millisecond))

	if count := testutil.CollectAndCount(m.StoreDuration); count != 1 {
		t.Errorf("Expected 1 label combination, got %d", count)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.EventHandled("x", OutcomeHandled)
	m.RequestTransition("pending")
	m.ObserveStore("create", time.Now())
	m.SetPresence(1)
	m.SetActiveSessions(1)
	m.SocketOpened()
	m.SocketClosed()
	m.SendDropped()
}
