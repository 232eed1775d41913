package backend

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for backend_requests_total.
const (
	outcomeRows      = "rows"
	outcomeEmpty     = "empty"
	outcomeStatus    = "status_error"
	outcomeTransport = "transport_error"
	outcomeDecode    = "decode_error"
)

var (
	// upstreamReqs counts attempts against the backend by outcome.
	upstreamReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Total number of backend REST attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// upstreamLat records per-attempt latency, including body read.
	upstreamLat = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Duration of backend REST attempts in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(upstreamReqs, upstreamLat)
}
