package escrow

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	opMake   = "make"
	opTake   = "take"
	opRefund = "refund"
)

// Metrics counts escrow operations.
type Metrics struct {
	operations *prometheus.CounterVec
	settled    *prometheus.CounterVec
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
		prometheus.MustRegister(metricsRegistry.operations, metricsRegistry.settled)
	})
	return metricsRegistry
}

// NewMetrics returns unregistered metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrowd",
			Subsystem: "escrow",
			Name:      "operations_total",
			Help:      "Count of escrow operations by kind and result.",
		}, []string{"operation", "result"}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrowd",
			Subsystem: "escrow",
			Name:      "settled_amount_total",
			Help:      "Sum of units moved by settlements per asset.",
		}, []string{"ticker"}),
	}
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) observeSettled(ticker string, amount uint64) {
	if m == nil {
		return
	}
	m.settled.WithLabelValues(ticker).Add(float64(amount))
}
