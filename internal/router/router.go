// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// site. It organizes routes into page routes and rate-limited endpoint
// routes.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"spacetraveling/internal/handlers"
	"spacetraveling/internal/middleware"
	"spacetraveling/web"
)

// Limits are the per-visitor request budgets of the route groups, per
// limiter window. A zero budget disables limiting for its group.
type Limits struct {
	// Pages covers the home and post pages. A page miss can generate
	// from the content API, so pages are limited too.
	Pages int
	// LoadMore covers the load-more endpoint, which reaches the content
	// API on every request.
	LoadMore int
	// Preview covers entering and leaving preview mode.
	Preview int
}

// Deps are the collaborators the router wires together.
type Deps struct {
	PreviewStore middleware.PreviewStore
	Limiter      *middleware.RateLimiter
	Limits       Limits
	Security     middleware.SecurityOptions
	Errors       middleware.ErrorRenderer
	Public       *handlers.Public
	Preview      *handlers.Preview
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) (chi.Router, error) {
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Global middleware, applied to every request. Recovery runs inside
	// the logger so a panic is logged with its request id and status.
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer(d.Errors))
	r.Use(middleware.SecureHeaders(d.Security))

	r.NotFound(d.Public.NotFound)

	// Health check and assets need no preview state.
	r.Get("/health", healthHandler)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadPreview(d.PreviewStore))

		// Pages share one budget.
		r.Group(func(r chi.Router) {
			r.Use(d.Limiter.Limit("pages", d.Limits.Pages))
			r.Get("/", d.Public.Homepage)
			r.Get("/post/{slug}", d.Public.Post)
		})

		r.With(d.Limiter.Limit("load-more", d.Limits.LoadMore)).Get("/posts/more", d.Public.LoadMore)

		r.Group(func(r chi.Router) {
			r.Use(d.Limiter.Limit("preview", d.Limits.Preview))
			r.Get("/api/preview", d.Preview.Enter)
			r.Get("/api/exit-preview", d.Preview.Exit)
		})
	})

	return r, nil
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
