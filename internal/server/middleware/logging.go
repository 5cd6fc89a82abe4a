package middleware

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/logging"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// HTTPObserver records per-request metrics.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// AccessLog logs one line per request and feeds obs when it is non-nil.
// Cookies and request bodies are never logged.
func AccessLog(l logging.Logger, obs HTTPObserver) func(http.Handler) http.Handler {
	l = l.With("module", "http")

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

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}

			if obs != nil {
				obs.ObserveHTTP(r.Method, route, status, elapsed)
			}

			l.Info(r.Context(), "http request",
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
			)
		})
	}
}
