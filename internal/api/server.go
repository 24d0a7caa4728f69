package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"partspricing/internal/usecase/pricing"
)

// Server is the thin HTTP transport over the pricing usecases.
type Server struct {
	service *pricing.Service
	appName string
}

func NewServer(service *pricing.Service, appName string) *Server {
	return &Server{service: service, appName: appName}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/parts", func(r chi.Router) {
			r.Get("/{id}/prices", s.handlePrices)
			r.Get("/{id}/best-price", s.handleBestPrice)
			r.Get("/{id}/average-price", s.handleAveragePrice)
			r.Post("/refresh", s.handleRefresh)
		})
		r.Get("/search", s.handleSearch)
		r.Get("/search/by-oem", s.handleSearchByOEM)
	})

	return r
}
