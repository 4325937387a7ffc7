package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
)

// NewRouter mounts the bridge endpoints. metricsHandler may be nil.
func NewRouter(h *Handler, accessLog zerolog.Logger, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(accessLog))
	r.Use(middleware.Recoverer)

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/webhook", h.Webhook)
	r.Post("/webhook/direct", h.WebhookDirect)

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	return r
}
