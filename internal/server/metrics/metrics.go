// Package metrics records HTTP and upload metrics with Prometheus and
// exposes them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the server's Prometheus metrics.
type Collector struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	uploads  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudnotes_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cloudnotes_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudnotes_uploads_total",
			Help: "File uploads by visibility and outcome.",
		}, []string{"visibility", "outcome"}),
	}

	reg.MustRegister(c.requests, c.latency, c.uploads)

	return c
}

// RecordRequest counts one HTTP request and observes its latency.
func (c *Collector) RecordRequest(method, route string, statusCode int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordUpload counts one upload attempt. outcome is "ok" or an error kind.
func (c *Collector) RecordUpload(public bool, outcome string) {
	visibility := "private"
	if public {
		visibility = "public"
	}
	c.uploads.WithLabelValues(visibility, outcome).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
