package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RegisterRoutes registers all simulator routes
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/assets", h.HandleGetAssets)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.HandleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetSession)
				r.Delete("/", h.HandleDeleteSession)
				r.Post("/reset", h.HandleResetSession)
				r.Get("/bars", h.HandleGetBars)
				r.Get("/quote", h.HandleQuote)
				r.Post("/advance", h.HandleAdvance)
				r.Post("/settle", h.HandleSettle)
				r.Post("/close-all", h.HandleCloseAll)

				r.Post("/positions", h.HandleOpenPosition)
				r.Route("/positions/{pid}", func(r chi.Router) {
					r.Patch("/", h.HandleSetProtection)
					r.Get("/preview", h.HandlePreview)
					r.Post("/close", h.HandleClosePosition)
				})
			})
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.HandleGetRuns)
			r.Get("/{id}", h.HandleGetRun)
		})
	})
}

// NewRouter wires middleware and routes for the HTTP server
func NewRouter(h *SessionHandler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	h.RegisterRoutes(r)
	return r
}
