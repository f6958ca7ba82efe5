package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the Chi router with all routes configured.
func NewRouter(handlers *Handlers, db, redisClient Pinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", Healthz)
	r.Get("/readyz", ReadyHandlerFunc(db, redisClient, log))

	r.Post("/routes/compute", handlers.ComputeRoutes)
	r.Post("/places/along-route", handlers.PlacesAlongRoute)
	r.Post("/ai/plan", handlers.GeneratePlan)
	r.Post("/plans", handlers.CreatePlan)
	r.Get("/plans/{id}", handlers.GetPlan)

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
