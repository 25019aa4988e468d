package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all dataset routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/datasets", func(r chi.Router) {
		r.Get("/", h.HandleCatalog)
		r.Get("/{dataset}", h.HandleDescribe)
		r.Get("/{dataset}/rows", h.HandleRows)
	})

	r.Route("/cache", func(r chi.Router) {
		r.Get("/status", h.HandleCacheStatus)
		r.Post("/{dataset}/refresh", h.HandleCacheRefresh)
	})

	r.Get("/earnings/window", h.HandleEarningsWindow)
	r.Get("/vendors/companies", h.HandleVendorCompanies)
	r.Get("/scores/ranked", h.HandleRankedScores)

	r.Route("/profiles", func(r chi.Router) {
		r.Get("/search", h.HandleSearchProfiles)
		r.Get("/resolve", h.HandleResolveProfile)
	})
}
