package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records counters for the order-stock core.
type OrderMetrics struct {
	placed           prometheus.Counter
	canceled         prometheus.Counter
	stockAdjustments *prometheus.CounterVec
	placementSeconds prometheus.Histogram
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders successfully placed.",
	})
	canceled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_canceled_total",
		Help: "Orders successfully cancelled.",
	})
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Stock adjustments applied, labeled by direction.",
	}, []string{"direction"})
	placementSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_duration_seconds",
		Help:    "Duration of order placement transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(placed, canceled, adjustments, placementSeconds)
	return &OrderMetrics{
		placed:           placed,
		canceled:         canceled,
		stockAdjustments: adjustments,
		placementSeconds: placementSeconds,
	}
}

// IncPlaced increments the placed-orders counter.
func (m *OrderMetrics) IncPlaced() {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
}

// IncCanceled increments the cancelled-orders counter.
func (m *OrderMetrics) IncCanceled() {
	if m == nil || m.canceled == nil {
		return
	}
	m.canceled.Inc()
}

// IncStockAdjustment counts one applied adjustment in the given direction.
func (m *OrderMetrics) IncStockAdjustment(delta int) {
	if m == nil || m.stockAdjustments == nil {
		return
	}
	direction := "increase"
	if delta < 0 {
		direction = "decrease"
	}
	m.stockAdjustments.WithLabelValues(direction).Inc()
}

// ObservePlacement records the duration of one placement transaction.
func (m *OrderMetrics) ObservePlacement(duration time.Duration) {
	if m == nil || m.placementSeconds == nil {
		return
	}
	m.placementSeconds.Observe(duration.Seconds())
}
