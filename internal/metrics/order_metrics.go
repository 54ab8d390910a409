package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики операций жизненного цикла заказа.
type OrderMetrics struct {
	// Счётчики исходов по операциям.
	operations *prometheus.CounterVec
	rejections *prometheus.CounterVec

	// Гистограмма времени выполнения операций.
	duration *prometheus.HistogramVec

	// Счётчик позиций, выброшенных сверкой с каталогом.
	removedLines *prometheus.CounterVec
}

// NewOrderMetrics создаёт и регистрирует метрики в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bookshop_order_operations_total",
			Help: "Total number of completed order lifecycle operations",
		}, []string{"op"}),
		rejections: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bookshop_order_rejections_total",
			Help: "Total number of rejected order lifecycle operations",
		}, []string{"op", "kind"}),
		duration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "bookshop_order_operation_duration_seconds",
			Help:    "Duration of order lifecycle operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"op"}),
		removedLines: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bookshop_order_reconcile_removed_lines_total",
			Help: "Total number of order lines dropped by catalog reconciliation",
		}, []string{"op"}),
	}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOperation увеличивает счётчик успешно завершённых операций.
func (m *OrderMetrics) RecordOperation(op string) {
	m.operations.WithLabelValues(op).Inc()
}

// RecordRejection увеличивает счётчик отказов по классификации.
func (m *OrderMetrics) RecordRejection(op, kind string) {
	m.rejections.WithLabelValues(op, kind).Inc()
}

// RecordDuration записывает время выполнения операции.
func (m *OrderMetrics) RecordDuration(op string, duration time.Duration) {
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordRemovedLines учитывает позиции, выброшенные сверкой.
func (m *OrderMetrics) RecordRemovedLines(op string, count int) {
	m.removedLines.WithLabelValues(op).Add(float64(count))
}
