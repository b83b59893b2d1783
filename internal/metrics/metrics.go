// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapeOperationsTotal  *prometheus.CounterVec
	scrapeDurationSeconds  *prometheus.HistogramVec
	filmsExtractedTotal    *prometheus.CounterVec
	activeBrowserSessions  prometheus.Gauge
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDurationSec *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapeOperationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_operations_total",
				Help: "Total scrape operations, labeled by operation and outcome.",
			},
			[]string{"operation", "status"},
		)

		scrapeDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_operation_duration_seconds",
				Help:    "Histogram of scrape operation latencies, labeled by operation.",
				Buckets: []float64{1, 2, 5, 10, 20, 40, 60, 90},
			},
			[]string{"operation"},
		)

		filmsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_films_extracted_total",
				Help: "Total film records extracted, labeled by extraction method.",
			},
			[]string{"method"},
		)

		activeBrowserSessions = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_active_browser_sessions",
				Help: "Number of browser sessions currently open.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSec = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScrape records one scrape operation outcome and its duration.
func ObserveScrape(operation, status string, duration time.Duration) {
	scrapeOperationsTotal.WithLabelValues(operation, status).Inc()
	scrapeDurationSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}

// AddFilmsExtracted counts extracted film records for a method tag.
func AddFilmsExtracted(method string, count int) {
	if count > 0 {
		filmsExtractedTotal.WithLabelValues(method).Add(float64(count))
	}
}

// IncActiveSessions increments the open browser session gauge.
func IncActiveSessions() {
	activeBrowserSessions.Inc()
}

// DecActiveSessions decrements the open browser session gauge.
func DecActiveSessions() {
	activeBrowserSessions.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSec.WithLabelValues(method, route).Observe(duration.Seconds())
}
