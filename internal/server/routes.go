package server

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the API routes.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Get("/healthz", h.Health)

	router.Route("/api", func(r chi.Router) {
		r.Route("/reports", func(r chi.Router) {
			r.Get("/query", h.QueryParams) // Report from query string
			r.Post("/query", h.Query)      // Report from JSON body
			r.Post("/explain", h.Explain)  // Compiled plan and SQL
			r.Get("/templates", h.ListTemplates)
			r.Route("/templates/{name}", func(r chi.Router) {
				r.Get("/", h.GetTemplate)
				r.Put("/", h.PutTemplate)
				r.Delete("/", h.DeleteTemplate)
				r.Post("/run", h.RunTemplate)
			})
		})
		r.Get("/tables/{table}", h.Table)
		r.Get("/metrics", h.Metrics)
	})
}
