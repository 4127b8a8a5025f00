// Package server wires HTTP handlers into a chi router for the EchoRoom
// application.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter configures the application routes: the WebSocket endpoint, the
// health and status endpoints, and the built-in chat page. Unmatched routes
// get a JSON 404.
func NewRouter(hub *Hub, startedAt time.Time) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", ChatPageHandler)
	r.Get("/ws", WebSocketHandler(hub))
	r.Get("/health", HealthHandler(hub, startedAt))
	r.Get("/api/users", UsersHandler(hub))
	r.Get("/api/status", StatusHandler(startedAt))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})

	return r
}
