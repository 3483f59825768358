package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OrderMetrics holds the order lifecycle counters.
type OrderMetrics struct {
	OrdersCreatedTotal   prometheus.CounterVec
	OrdersSubmittedTotal prometheus.CounterVec
	OrdersCompletedTotal prometheus.CounterVec
	OrdersFailedTotal    prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	factory := promauto.With(reg)

	return &OrderMetrics{
		OrdersCreatedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_created_total",
				Help: "Total number of created orders",
			},
			[]string{"origin", "flow_type", "app_id"},
		),

		OrdersSubmittedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_submitted_total",
				Help: "Total number of submitted orders",
			},
			[]string{"origin", "flow_type", "app_id", "blockchain_version"},
		),

		OrdersCompletedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_completed_total",
				Help: "Total number of completed orders",
			},
			[]string{"app_id"},
		),

		OrdersFailedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_failed_total",
				Help: "Total number of failed orders",
			},
			[]string{"origin", "flow_type", "app_id"},
		),
	}
}

func (m *OrderMetrics) RecordOrderCreated(origin, flowType, appID string) {
	m.OrdersCreatedTotal.WithLabelValues(origin, flowType, appID).Inc()
}

func (m *OrderMetrics) RecordOrderSubmitted(origin, flowType, appID, blockchainVersion string) {
	m.OrdersSubmittedTotal.WithLabelValues(origin, flowType, appID, blockchainVersion).Inc()
}

func (m *OrderMetrics) RecordOrderCompleted(appID string) {
	m.OrdersCompletedTotal.WithLabelValues(appID).Inc()
}

func (m *OrderMetrics) RecordOrderFailed(origin, flowType, appID string) {
	m.OrdersFailedTotal.WithLabelValues(origin, flowType, appID).Inc()
}
