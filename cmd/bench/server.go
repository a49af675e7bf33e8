package main

import (
	"encoding/json"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/IvanBrykalov/searchlist/searchlist"
)

// newRouter serves the run's metrics registry, a JSON view of the list's
// Stats and the pprof handlers.
func newRouter(reg *prometheus.Registry, l searchlist.List[int], log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(accessLog(log))

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(l.Stats()); err != nil {
			log.Warn("encode stats", zap.Error(err))
		}
	})
	r.Mount("/debug", middleware.Profiler())
	return r
}

// accessLog writes one Debug entry per request.
func accessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("code", m.Code),
				zap.Int64("written", m.Written),
				zap.Duration("took", m.Duration),
			)
		})
	}
}
