package middleware

import (
	"net/http"
	"strconv"
	"time"

	"dose-tracker/internal/platform/logger"
	"dose-tracker/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog registra cada request (nivel debug para /health y /metrics)
// y alimenta las métricas HTTP si hay collector.
func AccessLog(log logger.Logger, m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			// Patrón de ruta (no el path crudo) para no disparar cardinalidad.
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}

			if m != nil {
				m.ObserveHTTP(r.Method, route, strconv.Itoa(status), elapsed)
			}

			fields := map[string]any{
				"method":      r.Method,
				"route":       route,
				"status":      status,
				"duration_ms": elapsed.Milliseconds(),
				"request_id":  chimw.GetReqID(r.Context()),
			}
			if route == "/health" || route == "/metrics" {
				log.Debug("http request", fields)
				return
			}
			log.Info("http request", fields)
		})
	}
}
