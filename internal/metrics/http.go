// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admitd_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "admitd_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admitd_http_response_size_bytes",
		Help:    "HTTP response sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 8),
	}, []string{"method", "path", "status"})
)

// IncHTTPInFlight increments the in-flight request gauge.
func IncHTTPInFlight() {
	httpRequestsInFlight.Inc()
}

// DecHTTPInFlight decrements the in-flight request gauge.
func DecHTTPInFlight() {
	httpRequestsInFlight.Dec()
}

// ObserveHTTPRequest records duration and response size for a finished request.
// path must be a route pattern, never a raw URL.
func ObserveHTTPRequest(method, path, status string, seconds float64, bytesWritten int) {
	httpRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
	if bytesWritten > 0 {
		httpResponseSize.WithLabelValues(method, path, status).Observe(float64(bytesWritten))
	}
}
