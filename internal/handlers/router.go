package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jwebster45206/local-legends/internal/middleware"
	"github.com/jwebster45206/local-legends/internal/services"
	"github.com/jwebster45206/local-legends/pkg/storage"
)

// NewRouter wires every dialogue endpoint.
func NewRouter(store storage.Storage, responder services.Responder, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	sessionHandler := NewSessionHandler(store, logger)
	npcHandler := NewNPCHandler(store, responder, logger)

	r.Method(http.MethodGet, "/health", NewHealthHandler(store, logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/session/init", sessionHandler.Init)
		r.Get("/session/{id}/conversations", sessionHandler.Conversations)

		r.Get("/npcs", npcHandler.List)
		r.Post("/npc/{name}/interact", npcHandler.Interact)
	})

	return r
}
