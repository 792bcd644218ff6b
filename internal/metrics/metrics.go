// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "posterstudio"

var (
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rasterizing a scene, by render kind.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"kind"},
	)

	ImageLoadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_image_load_failures_total",
			Help:      "Embedded images skipped because they failed to load.",
		},
	)

	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Artifact uploads by outcome.",
		},
		[]string{"outcome"},
	)

	HistoryPersists = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_persists_total",
			Help:      "Saved-design collection writes by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	HistoryCorruptLoads = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_corrupt_loads_total",
			Help:      "Saved-design collections that failed to parse and were treated as empty.",
		},
	)

	CartOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Cart mutations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	UnknownPriceKeys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_unknown_keys_total",
			Help:      "Price lookups that fell back to zero, by table.",
		},
		[]string{"table"},
	)

	OrderItemsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_items_rendered_total",
			Help:      "Order line items processed by the render webhook, by outcome.",
		},
		[]string{"outcome"},
	)
)

// Outcome maps an error to the label value used by the counters above.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
