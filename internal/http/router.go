package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", h.Health)

	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/unique-users", h.UniqueUsers)
		r.Get("/providers", h.Providers)
		r.Get("/top-property", h.TopProperty)
		r.Get("/impressions", h.Impressions)
		r.Get("/top-ad", h.TopAd)
		r.Get("/top-ads", h.TopAds)
	})

	return r
}
