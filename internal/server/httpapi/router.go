// Package httpapi exposes the auth flows as a JSON API under
// common.APIPrefix.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/keuthlie/internal/common"
	"github.com/dmitrijs2005/keuthlie/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP handler. allowedOrigins configures CORS; when it
// is empty no CORS headers are sent.
func NewRouter(auth Authenticator, logger logging.Logger, allowedOrigins []string) http.Handler {
	h := &handlers{auth: auth}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", healthz)

	r.Route(common.APIPrefix, func(r chi.Router) {
		r.Post("/register/email", h.register)
		r.Post("/login/email", h.login)
		r.Post("/verifyToken", h.verifyToken)
		r.Post("/password/change", h.changePassword)
		r.Post("/revoke", h.revoke)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorEnvelope{Error: CodeMalformedInput, Message: "Not found!"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorEnvelope{Error: CodeMalformedInput, Message: "Method not allowed!"})
	})

	return r
}
