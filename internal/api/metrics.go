package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wellness",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	cycleComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "cycle_computations_total",
		Help:      "Cycle computations served, by current phase.",
	}, []string{"phase"})

	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "chat_requests_total",
		Help:      "Chat proxy requests by outcome.",
	}, []string{"outcome"})

	remindersGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "motivational_reminders_total",
		Help:      "Motivational reminders generated, by mood.",
	}, []string{"mood"})
)

// MetricsMiddleware records request latency. The route label is chi's
// pattern, not the raw path, to keep cardinality bounded.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
