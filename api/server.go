/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/clients/*        Clients
  /api/holidays/*       Company holidays
  /api/packages/*       Packages, progress, milestones, alerts
  /api/tasks/*          Tasks
  /api/bulk-sessions/*  Bulk scheduling queues
  /api/schedule/*       Stateless plan preview
  /api/scenarios/*      Demo scenarios
  /metrics              Prometheus exposition

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go, bulk.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions tunes NewRouter. The zero value allows the local dev
// frontends and exposes the default Prometheus registry.
type RouterOptions struct {
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Route("/packages", func(r chi.Router) {
			r.Get("/", h.ListPackages)
			r.Post("/", h.CreatePackage)
			r.Get("/{id}", h.GetPackage)
			r.Put("/{id}", h.UpdatePackage)
			r.Delete("/{id}", h.DeletePackage)
			r.Get("/{id}/progress", h.GetPackageProgress)
			r.Post("/{id}/sync", h.SyncPackage)
			r.Post("/{id}/milestones/{index}/receive", h.ReceiveMilestone)
			r.Get("/{id}/alerts", h.ListPackageAlerts)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.ListTasks)
			r.Patch("/{id}/status", h.UpdateTaskStatus)
		})

		r.Route("/bulk-sessions", func(r chi.Router) {
			r.Post("/", h.CreateBulkSession)
			r.Get("/{id}", h.GetBulkSession)
			r.Delete("/{id}", h.DeleteBulkSession)
			r.Put("/{id}/items", h.PutBulkSessionItem)
			r.Delete("/{id}/items/{index}", h.DeleteBulkSessionItem)
			r.Post("/{id}/commit", h.CommitBulkSession)
		})

		r.Post("/schedule/preview", h.PreviewSchedule)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
