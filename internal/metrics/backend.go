package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vector-index backend metrics.
var (
	BackendOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "backend_online",
			Help:      "1 while the backend session is online, 0 once it has gone offline",
		},
	)

	BackendFailoversTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "backend_failovers_total",
			Help:      "Online to offline transitions of the backend session",
		},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "backend_requests_total",
			Help:      "Backend operations by outcome",
		},
		[]string{"op", "outcome"}, // outcome: ok, status, transport, decode, substitute
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	ResultShapesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_result_shapes_total",
			Help:      "Search payloads by recognized shape",
		},
		[]string{"shape"},
	)

	ResultItemsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_result_items_skipped_total",
			Help:      "Search result items that matched no item strategy",
		},
	)

	VectorStrategiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "vector_extract_total",
			Help:      "Vector recoveries by winning strategy",
		},
		[]string{"strategy"}, // "none" when nothing matched
	)
)

var backendMetricsRegistered bool

// RegisterBackendMetrics registers the backend and normalization metrics. Safe to call repeatedly.
func RegisterBackendMetrics() {
	if backendMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		BackendOnline,
		BackendFailoversTotal,
		BackendRequestsTotal,
		BackendRequestDuration,
		ResultShapesTotal,
		ResultItemsSkippedTotal,
		VectorStrategiesTotal,
	)
	backendMetricsRegistered = true
}
