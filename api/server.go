/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the portal frontend

ROUTE GROUPS:
  /api/workpackages/*     Contract, period, consumption, sync
  /api/regularizations/*  Manual adjustment deletion
  /api/strategies/*       Reusable rate strategies
  /api/cron/*             Scheduled backfill entry point
  /api/imports            Sync audit trail

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Contract routes
		r.Route("/workpackages", func(r chi.Router) {
			r.Get("/", h.ListWorkPackages)
			r.Post("/", h.CreateWorkPackage)
			r.Get("/{id}", h.GetWorkPackage)

			r.Get("/{id}/periods", h.ListPeriods)
			r.Post("/{id}/periods", h.CreatePeriod)
			r.Get("/{id}/periods/{pid}/consumption", h.GetConsumption)
			r.Post("/{id}/periods/{pid}/quote", h.QuoteRegularization)

			r.Get("/{id}/metrics", h.GetMetrics)
			r.Post("/{id}/sync", h.SyncWorkPackage)

			r.Get("/{id}/regularizations", h.ListRegularizations)
			r.Post("/{id}/regularizations", h.CreateRegularization)

			r.Post("/{id}/maintenance/manual-duplicates", h.CleanManualDuplicates)
		})

		// Regularization routes
		r.Route("/regularizations", func(r chi.Router) {
			r.Delete("/{id}", h.DeleteRegularization)
		})

		// Strategy routes
		r.Route("/strategies", func(r chi.Router) {
			r.Get("/", h.ListStrategies)
			r.Post("/", h.CreateStrategy)
			r.Get("/{id}", h.GetStrategy)
			r.Delete("/{id}", h.DeleteStrategy)
		})

		// Cron routes
		r.Route("/cron", func(r chi.Router) {
			r.Post("/backfill", h.CronBackfill)
		})

		// Audit trail
		r.Get("/imports", h.ListImportLogs)

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
