/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for admin frontends

ROUTE GROUPS:
  /api/rule-sets/*  Labor rule set management
  /api/runs/*       Run computation, lifecycle and reports

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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
		// Rule set routes
		r.Route("/rule-sets", func(r chi.Router) {
			r.Get("/", h.ListRuleSets)
			r.Post("/", h.CreateRuleSet)
			r.Get("/{id}", h.GetRuleSet)
		})

		// Run routes
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.ComputeRun)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetRun)
				r.Post("/recompute", h.RecomputeRun)
				r.Post("/approve", h.ApproveRun)
				r.Post("/pay", h.PayRun)
				r.Post("/void", h.VoidRun)
				r.Post("/adjustments", h.AppendAdjustment)

				r.Get("/register", h.GetRegister)
				r.Get("/employer-summary", h.GetEmployerSummary)
				r.Get("/ledgers/{employeeID}", h.GetLedger)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
