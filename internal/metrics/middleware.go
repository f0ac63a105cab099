package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/trivia-pot/internal/middleware"
)

// Handler serves the Prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and durations labelled by route template,
// keeping label cardinality independent of IDs in paths
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := routeTemplate(r)
		start := time.Now()

		RequestInProgress.WithLabelValues(r.Method, path).Inc()
		defer RequestInProgress.WithLabelValues(r.Method, path).Dec()

		wrapped := middleware.NewResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.Status())
		RequestCounter.WithLabelValues(status, r.Method, path).Inc()
		RequestDuration.WithLabelValues(status, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
