// Package metrics exposes Prometheus collectors for ledger operations and
// the read API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"multidist/internal/ledger"
)

// Collector records ledger and HTTP metrics. It implements ledger.Recorder.
type Collector struct {
	operations   *prometheus.CounterVec
	tokens       *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

var _ ledger.Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "multidist_ledger_operations_total",
			Help: "Ledger operations by outcome",
		}, []string{"operation", "result"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "multidist_ledger_tokens_total",
			Help: "Token base units moved by successful ledger operations",
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "multidist_api_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "multidist_api_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "multidist_api_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
	}

	reg.MustRegister(
		c.operations,
		c.tokens,
		c.httpRequests,
		c.httpDuration,
		c.httpInFlight,
	)
	return c
}

// ObserveOperation counts one ledger operation. The result label is
// "success" or the error kind name.
func (c *Collector) ObserveOperation(op string, err error) {
	result := "success"
	if err != nil {
		result = ledger.KindOf(err).String()
	}
	c.operations.WithLabelValues(op, result).Inc()
}

// ObserveTokens adds amount to the moved-token counter for op.
func (c *Collector) ObserveTokens(op string, amount uint64) {
	c.tokens.WithLabelValues(op).Add(float64(amount))
}

// Middleware returns a chi middleware that records HTTP metrics.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		c.httpInFlight.Inc()
		defer c.httpInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Route pattern keeps addresses out of the label set.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		c.httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		c.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
