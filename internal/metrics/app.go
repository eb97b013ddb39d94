package metrics

import "github.com/prometheus/client_golang/prometheus"

// Application Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pixxearch",
			Name:      "search_duration_seconds",
			Help:      "Search gateway round trip duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	SearchHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pixxearch",
			Name:      "search_hits",
			Help:      "Number of hits returned per search page",
			Buckets:   []float64{0, 1, 5, 10, 20, 40},
		},
	)

	SearchGatewayErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pixxearch",
			Name:      "search_gateway_errors_total",
			Help:      "Searches answered with an empty page because the index failed",
		},
	)

	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixxearch",
			Name:      "ingest_total",
			Help:      "Annotation payloads received by the indexer",
		},
		[]string{"status"}, // "indexed" / "rejected" / "failed"
	)

	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixxearch",
			Name:      "uploads_total",
			Help:      "Picture uploads",
		},
		[]string{"status"}, // "stored" / "rejected" / "throttled" / "failed"
	)

	UploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pixxearch",
			Name:      "upload_bytes_total",
			Help:      "Bytes written to the pictures bucket",
		},
	)
)

var appMetricsRegistered bool

// RegisterAppMetrics registers the application metrics. Must be called once from main.
func RegisterAppMetrics() {
	if appMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchHits)
	prometheus.MustRegister(SearchGatewayErrorsTotal)
	prometheus.MustRegister(IngestTotal)
	prometheus.MustRegister(UploadsTotal)
	prometheus.MustRegister(UploadBytes)
	appMetricsRegistered = true
}
