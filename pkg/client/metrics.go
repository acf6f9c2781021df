package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	clientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ollamactl",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the model server",
		},
		[]string{"endpoint", "outcome"},
	)

	clientRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ollamactl",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of model server requests in seconds",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	clientResponseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ollamactl",
			Subsystem: "client",
			Name:      "response_errors_total",
			Help:      "Responses that could not be decoded into a result",
		},
		[]string{"endpoint", "kind"},
	)
)

func init() {
	prometheus.MustRegister(clientRequestsTotal, clientRequestDuration, clientResponseErrorsTotal)
}

func observeRequest(endpoint, outcome string, dur time.Duration) {
	clientRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	clientRequestDuration.WithLabelValues(endpoint).Observe(dur.Seconds())
}

// observeResponseError counts decode failures; kind is "protocol" or "empty".
func observeResponseError(endpoint string, err error) {
	switch {
	case IsEmptyResponse(err):
		clientResponseErrorsTotal.WithLabelValues(endpoint, "empty").Inc()
	case IsProtocolError(err):
		clientResponseErrorsTotal.WithLabelValues(endpoint, "protocol").Inc()
	}
}
