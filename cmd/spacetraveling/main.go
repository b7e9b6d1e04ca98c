// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the spacetraveling blog server.
// It loads configuration, connects to services, pre-generates pages, sets up
// routing, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spacetraveling/internal/cache"
	"spacetraveling/internal/config"
	"spacetraveling/internal/document"
	"spacetraveling/internal/handlers"
	"spacetraveling/internal/listing"
	"spacetraveling/internal/middleware"
	"spacetraveling/internal/pages"
	"spacetraveling/internal/preview"
	"spacetraveling/internal/prismic"
	"spacetraveling/internal/render"
	"spacetraveling/internal/router"
	"spacetraveling/internal/session"
)

// prebuildTimeout bounds startup page generation.
const prebuildTimeout = 2 * time.Minute

func main() {
	// Load configuration from the environment and the optional config file.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON otherwise.
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"prismic", cfg.PrismicEndpoint,
	)

	// Connect to Valkey (Redis-compatible page cache + preview sessions).
	valkeyClient, err := cache.ConnectValkey(context.Background(), cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Content API client.
	prismicOpts := []prismic.Option{
		prismic.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClientTimeout}),
	}
	if cfg.PrismicAccessToken != "" {
		prismicOpts = append(prismicOpts, prismic.WithAccessToken(cfg.PrismicAccessToken))
	}
	client, err := prismic.New(cfg.PrismicEndpoint, prismicOpts...)
	if err != nil {
		slog.Error("failed to initialize content api client", "error", err)
		os.Exit(1)
	}

	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, cfg.PreviewTTL, secureCookies)

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Page generation on top of the L2 page cache (full-page HTML in Valkey).
	pageCache := cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)
	generator := pages.New(listing.New(client), document.New(client), renderer, pageCache, cfg.FallbackWait)

	// Pre-generate the home page and the declared posts. Pages that fail here
	// are generated on their first request.
	prebuildCtx, cancelPrebuild := context.WithTimeout(context.Background(), prebuildTimeout)
	if err := generator.Prebuild(prebuildCtx); err != nil {
		slog.Warn("prebuild incomplete", "error", err)
	}
	cancelPrebuild()

	// Create handler groups with their dependencies.
	publicHandlers, err := handlers.NewPublic(generator, renderer, client, client.Endpoint())
	if err != nil {
		slog.Error("failed to initialize handlers", "error", err)
		os.Exit(1)
	}
	previewHandlers := handlers.NewPreview(preview.New(client, sessionStore), renderer)

	limiter := middleware.NewRateLimiter(cfg.RateLimitWindow, renderer)
	defer limiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r, err := router.New(router.Deps{
		PreviewStore: sessionStore,
		Limiter:      limiter,
		Limits: router.Limits{
			Pages:    cfg.PagesRateLimit,
			LoadMore: cfg.LoadMoreRateLimit,
			Preview:  cfg.PreviewRateLimit,
		},
		Security: middleware.SecurityOptions{ImageOrigins: cfg.ImageOrigins, HSTS: cfg.HSTS},
		Errors:   renderer,
		Public:   publicHandlers,
		Preview:  previewHandlers,
	})
	if err != nil {
		slog.Error("failed to initialize router", "error", err)
		os.Exit(1)
	}

	// WriteTimeout covers an on-demand generation, which makes up to three
	// content API calls.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 4*cfg.HTTPClientTimeout + cfg.FallbackWait,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
