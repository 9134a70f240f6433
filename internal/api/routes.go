// Package api wires the HTTP surface: routing, middleware and handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kuba/mat-tutor-server/internal/api/handlers"
	"github.com/kuba/mat-tutor-server/internal/api/middleware"
	"github.com/kuba/mat-tutor-server/internal/logger"
)

// RouterConfig bounds the transport-level middleware.
type RouterConfig struct {
	AllowedOrigins []string
	GlobalRPS      float64
	GlobalBurst    int
}

// NewRouter builds the HTTP router with all middleware and routes.
func NewRouter(
	cfg RouterConfig,
	chat *handlers.ChatHandler,
	tokenStatus *handlers.TokenStatusHandler,
	sessions *handlers.SessionsHandler,
	log *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.GlobalRPS > 0 {
		r.Use(middleware.Throttle(cfg.GlobalRPS, cfg.GlobalBurst))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", chat.Handle)
		r.Get("/token-status", tokenStatus.Handle)
		r.Get("/sessions", sessions.List)
		r.Get("/sessions/{id}", sessions.Get)
		r.Delete("/sessions/{id}", sessions.Delete)
	})

	return r
}
