// Package metrics holds the Prometheus collectors for the CRM and the HTTP
// middleware that feeds the request series.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salescrm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salescrm_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	scopeDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salescrm_scope_degraded_total",
			Help: "Manager scoping lookups that failed and fell back to self-only visibility",
		},
		[]string{"kind"},
	)

	leadConversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salescrm_lead_conversions_total",
			Help: "Lead conversion attempts by outcome",
		},
		[]string{"outcome"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency. The chi route pattern is
// used as the label so ids in paths do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordScopeDegraded counts a manager scope that fell back to self-only.
func RecordScopeDegraded(kind string) {
	scopeDegraded.WithLabelValues(kind).Inc()
}

// RecordConversion counts a lead conversion attempt by outcome.
func RecordConversion(outcome string) {
	leadConversions.WithLabelValues(outcome).Inc()
}
