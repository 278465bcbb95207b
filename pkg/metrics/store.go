// Package metrics exposes the Prometheus collectors used by the service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "partstock"

// Operation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
)

// StoreMetrics follows inventory mutations and the resulting stock levels.
type StoreMetrics struct {
	operations  *prometheus.CounterVec
	imported    *prometheus.CounterVec
	itemsInHand prometheus.Gauge
	unread      prometheus.Gauge
}

// NewStoreMetrics registers the store collectors on reg. A nil registerer
// yields a no-op recorder.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	m := &StoreMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Inventory store operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		imported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_candidates_total",
			Help:      "Import candidates by result (merged, created, rejected).",
		}, []string{"result"}),
		itemsInHand: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items_in_hand",
			Help:      "Units currently on hand across all items.",
		}),
		unread: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notifications_unread",
			Help:      "Unread entries in the notification feed.",
		}),
	}
	reg.MustRegister(m.operations, m.imported, m.itemsInHand, m.unread)
	return m
}

func (m *StoreMetrics) ObserveOperation(operation, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

func (m *StoreMetrics) ObserveImport(merged, created, rejected int) {
	if m == nil || m.imported == nil {
		return
	}
	m.imported.WithLabelValues("merged").Add(float64(merged))
	m.imported.WithLabelValues("created").Add(float64(created))
	m.imported.WithLabelValues("rejected").Add(float64(rejected))
}

func (m *StoreMetrics) SetLevels(itemsInHand int64, unread int) {
	if m == nil || m.itemsInHand == nil {
		return
	}
	m.itemsInHand.Set(float64(itemsInHand))
	m.unread.Set(float64(unread))
}
