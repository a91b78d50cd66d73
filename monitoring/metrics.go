package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_operations_total",
			Help: "Total payment and registration operations by outcome",
		},
		[]string{"operation", "result"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of gateway initiate and verify calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider", "call", "outcome"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payment_sessions_active",
			Help: "Gateway checkouts currently awaiting a callback",
		},
	)
)

// TrackPaymentOperation counts one coordinator operation outcome.
func TrackPaymentOperation(operation, result string) {
	paymentOperations.WithLabelValues(operation, result).Inc()
}

// ObserveGatewayRequest records the latency of one gateway round trip.
func ObserveGatewayRequest(provider, call string, duration time.Duration, success bool) {
	outcome := "error"
	if success {
		outcome = "success"
	}
	gatewayRequestDuration.WithLabelValues(provider, call, outcome).Observe(duration.Seconds())
}

// SessionCounter reports the number of live payment sessions. Satisfied
// by the redis session store.
type SessionCounter interface {
	ActiveCount(ctx context.Context) (int64, error)
}

type Monitor struct {
	sessions SessionCounter
}

func NewMonitor(sessions SessionCounter) *Monitor {
	monitor := &Monitor{sessions: sessions}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		m.collectSessionMetrics(ctx)
		cancel()
	}
}

func (m *Monitor) collectSessionMetrics(ctx context.Context) {
	count, err := m.sessions.ActiveCount(ctx)
	if err != nil {
		return
	}
	activeSessions.Set(float64(count))
}
