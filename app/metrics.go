package app

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics describes the transaction flow of the application.
type Metrics struct {
	txs      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	height   prometheus.Gauge
}

var (
	metricsOnce     sync.Once
	metricsRegistry *Metrics
)

// DefaultMetrics returns metrics registered with the default prometheus
// registry.
func DefaultMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsRegistry = NewMetrics()
		prometheus.MustRegister(metricsRegistry.txs, metricsRegistry.duration, metricsRegistry.height)
	})
	return metricsRegistry
}

// NewMetrics returns unregistered metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrowd",
			Subsystem: "app",
			Name:      "transactions_total",
			Help:      "Count of processed transactions by call, message path and ABCI code.",
		}, []string{"call", "path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "escrowd",
			Subsystem: "app",
			Name:      "transaction_duration_seconds",
			Help:      "Time spent processing a transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"call"}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "escrowd",
			Subsystem: "app",
			Name:      "committed_height",
			Help:      "Version of the last committed state.",
		}),
	}
}

func (m *Metrics) observeTx(call, path string, code uint32, start time.Time) {
	if m == nil {
		return
	}
	m.txs.WithLabelValues(call, path, strconv.FormatUint(uint64(code), 10)).Inc()
	m.duration.WithLabelValues(call).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeCommit(height int64) {
	if m == nil {
		return
	}
	m.height.Set(float64(height))
}
