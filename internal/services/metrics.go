package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// lookupResults counts lookups by result class. Labels are fixed, so
// cardinality stays bounded regardless of traffic.
var lookupResults = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lookups_total",
		Help: "Total number of barcode lookups by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(lookupResults)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrMissingBarcode):
		return "bad_request"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrProductNotFound):
		return "not_found"
	default:
		return "upstream_error"
	}
}
