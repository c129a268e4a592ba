// Package router sets up the HTTP routes and middleware chain for the
// portfolio API server.
package router

import (
	"github.com/go-chi/chi/v5"

	"printfolio/internal/handlers"
	"printfolio/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and routes wired up.
func New(api *handlers.API, contactLimiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Health check.
	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/portfolio", api.Portfolio)
		r.Get("/portfolio/tags", api.Tags)

		// The contact form is the one write endpoint the public can hit,
		// so it carries its own rate limit.
		r.Group(func(r chi.Router) {
			if contactLimiter != nil {
				r.Use(contactLimiter.Middleware)
			}
			r.Post("/contact", api.Contact)
		})
	})

	return r
}
