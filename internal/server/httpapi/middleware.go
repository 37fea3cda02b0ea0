package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/keuthlie/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger tags the request context with its request id, so flow logs
// carry it too, and logs one line per request after it completes.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			if id := middleware.GetReqID(r.Context()); id != "" {
				r = r.WithContext(logging.ContextWith(r.Context(), "request_id", id))
			}

			next.ServeHTTP(ww, r)

			logger.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"latency", time.Since(start).String(),
			)
		})
	}
}

// recoverer turns a handler panic into the opaque internal error.
func recoverer(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					logger.Error(r.Context(), "handler panic", "panic", p, "path", r.URL.Path)
					writeJSON(w, internalError.status, errorEnvelope{Error: internalError.code, Message: internalError.message})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
