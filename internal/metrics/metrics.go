// Package metrics provides Prometheus instrumentation for the PNL engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts trades inserted, partitioned by operation.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pnl_trades_total",
		Help: "Total number of trades inserted",
	}, []string{"op"})

	// MTMRecordsTotal counts mark-to-market records inserted.
	MTMRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pnl_mtm_records_total",
		Help: "Total number of MTM records inserted",
	})

	// PositionsTotal counts position observations inserted.
	PositionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pnl_positions_total",
		Help: "Total number of position records inserted",
	})

	// ValidationFailures counts inserts rejected by field validation.
	ValidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pnl_validation_failures_total",
		Help: "Inserts rejected by trade field validation",
	})

	// TradesDeleted counts soft deletes (status flips to inactive).
	TradesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pnl_trades_deleted_total",
		Help: "Trades marked inactive",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pnl_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pnl_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; route cardinality is small.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
