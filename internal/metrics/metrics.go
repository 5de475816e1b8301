// Package metrics exposes Prometheus collectors for the rank tracker service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	rankChecksTotal              *prometheus.CounterVec
	serpFetchDurationSeconds     *prometheus.HistogramVec
	serpRedirectResolutionsTotal *prometheus.CounterVec
	serpEntriesParsed            *prometheus.HistogramVec
	httpRequestsTotal            *prometheus.CounterVec
	httpRequestDurationSeconds   *prometheus.HistogramVec
	httpRequestsInFlight         prometheus.Gauge
	rateLimitDelaysSeconds       *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		rankChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rank_checks_total",
				Help: "Total number of rank checks, labeled by check type and outcome.",
			},
			[]string{"type", "outcome"},
		)

		serpFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "serp_fetch_duration_seconds",
				Help:    "Histogram of SERP fetch latencies, labeled by search scope and outcome.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"scope", "outcome"},
		)

		serpRedirectResolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serp_redirect_resolutions_total",
				Help: "Total number of ad-redirect resolutions, labeled by result.",
			},
			[]string{"result"},
		)

		serpEntriesParsed = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "serp_entries_parsed",
				Help:    "Number of result entries parsed per SERP, labeled by search scope.",
				Buckets: []float64{0, 5, 10, 20, 40, 80},
			},
			[]string{"scope"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)

		httpRequestsInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being served. Batch checks stay in flight for their whole run.",
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "serp_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveCheck increments the rank check counter.
func ObserveCheck(checkType string, outcome string) {
	Init()
	rankChecksTotal.WithLabelValues(checkType, outcome).Inc()
}

// ObserveSERPFetch records how long a SERP fetch took.
func ObserveSERPFetch(scope string, outcome string, duration time.Duration) {
	Init()
	serpFetchDurationSeconds.WithLabelValues(scope, outcome).Observe(duration.Seconds())
}

// ObserveRedirect increments the redirect resolution counter.
func ObserveRedirect(result string) {
	Init()
	serpRedirectResolutionsTotal.WithLabelValues(result).Inc()
}

// ObserveEntries records how many entries a parsed SERP produced.
func ObserveEntries(scope string, count int) {
	Init()
	serpEntriesParsed.WithLabelValues(scope).Observe(float64(count))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
