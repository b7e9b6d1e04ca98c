// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP handlers of the site: the public
// pages, the load-more endpoint and the preview endpoints.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"spacetraveling/internal/cache"
	"spacetraveling/internal/listing"
	"spacetraveling/internal/middleware"
	"spacetraveling/internal/pages"
	"spacetraveling/internal/prismic"
	"spacetraveling/internal/render"
)

// PageGenerator produces complete pages for a content ref.
type PageGenerator interface {
	Home(ctx context.Context, ref string) (cache.Page, error)
	Post(ctx context.Context, uid, ref string) (cache.Page, error)
}

// PageRenderer renders named templates and the site's error page.
type PageRenderer interface {
	Page(w http.ResponseWriter, r *http.Request, status int, name string, data *render.PageData)
	Error(w http.ResponseWriter, r *http.Request, status int)
}

// Public groups handlers for the public-facing site. Pages come from the
// generator, which owns the page cache; the load-more endpoint follows the
// content API's cursor directly.
type Public struct {
	pages    PageGenerator
	renderer PageRenderer
	fetcher  listing.PageFetcher
	api      *url.URL
}

// NewPublic creates a new Public handler group. apiEndpoint is the content
// API endpoint load-more cursors must point at.
func NewPublic(pages PageGenerator, renderer PageRenderer, fetcher listing.PageFetcher, apiEndpoint string) (*Public, error) {
	api, err := url.Parse(apiEndpoint)
	if err != nil || !api.IsAbs() {
		return nil, fmt.Errorf("handlers: invalid api endpoint %q", apiEndpoint)
	}
	return &Public{pages: pages, renderer: renderer, fetcher: fetcher, api: api}, nil
}

// Homepage renders the list of posts.
func (p *Public) Homepage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := middleware.PreviewRefFromCtx(ctx)

	page, err := p.pages.Home(ctx, ref)
	if err != nil {
		slog.Error("generate home failed", "error", err, "request_id", middleware.RequestIDFromCtx(ctx))
		p.renderer.Error(w, r, http.StatusInternalServerError)
		return
	}

	servePage(w, r, ref, page)
}

// Post renders a post by its uid. Unknown posts get a 404 page; a post
// still being generated gets the loading placeholder, which reloads itself.
func (p *Public) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")
	if msg := validateSlug(slugParam); msg != "" {
		p.NotFound(w, r)
		return
	}
	middleware.AddLogAttrs(ctx, slog.String("slug", slugParam))

	ref := middleware.PreviewRefFromCtx(ctx)
	page, err := p.pages.Post(ctx, slugParam, ref)
	switch {
	case errors.Is(err, prismic.ErrNotFound):
		p.NotFound(w, r)
	case errors.Is(err, pages.ErrPending):
		middleware.AddLogAttrs(ctx, slog.String("page", "pending"))
		w.Header().Set("Cache-Control", "no-store")
		p.renderer.Page(w, r, http.StatusOK, "fallback", &render.PageData{Title: "Carregando"})
	case err != nil:
		slog.Error("generate post failed", "error", err, "slug", slugParam, "request_id", middleware.RequestIDFromCtx(ctx))
		p.renderer.Error(w, r, http.StatusInternalServerError)
	default:
		servePage(w, r, ref, page)
	}
}

// LoadMore returns the page of posts at the cursor given in the query. It
// answers with JSON shaped like the API page ({next_page, results}) when
// the client accepts JSON, and with the HTML fragment of post cards and
// the next button otherwise.
func (p *Public) LoadMore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cursor := r.URL.Query().Get("cursor")
	if msg := validateCursor(cursor, p.api); msg != "" {
		middleware.AddLogAttrs(ctx, slog.String("cursor_rejected", msg))
		p.renderer.Error(w, r, http.StatusBadRequest)
		return
	}

	session := listing.ResumeSession(p.fetcher, cursor)
	if _, err := session.LoadMore(ctx); err != nil {
		slog.Error("load more failed", "error", err, "request_id", middleware.RequestIDFromCtx(ctx))
		p.renderer.Error(w, r, http.StatusBadGateway)
		return
	}
	pagination := session.Pagination()
	middleware.AddLogAttrs(ctx,
		slog.Int("results", len(pagination.Results)),
		slog.Bool("last_page", pagination.NextPage == nil),
	)

	w.Header().Set("Cache-Control", "no-store")
	if render.WantsJSON(r) {
		writeJSON(w, http.StatusOK, pagination)
		return
	}
	p.renderer.Page(w, r, http.StatusOK, "more", &render.PageData{Data: pagination})
}

// NotFound renders the site's 404 page. It also serves unknown routes.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.AddLogAttrs(r.Context(), slog.String("page", "not_found"))
	p.renderer.Page(w, r, http.StatusNotFound, "notfound", &render.PageData{Title: "Post não encontrado"})
}

// servePage writes a generated page. Published pages carry their
// generation time as Last-Modified so revisits can be answered with 304;
// preview pages are kept out of shared caches.
func servePage(w http.ResponseWriter, r *http.Request, ref string, page cache.Page) {
	if ref != "" {
		w.Header().Set("Cache-Control", "private, no-store")
		render.HTML(w, http.StatusOK, page.HTML)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "", page.GeneratedAt, bytes.NewReader(page.HTML))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
