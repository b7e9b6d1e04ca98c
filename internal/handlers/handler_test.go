// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests: fakes for the page generator and content API, and a router that
// wires the handlers the way the server does.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"spacetraveling/internal/cache"
	"spacetraveling/internal/middleware"
	"spacetraveling/internal/models"
	"spacetraveling/internal/prismic"
	"spacetraveling/internal/render"
)

const testAPI = "https://spacetraveling.cdn.prismic.io/api/v2"

// fakePages returns canned pages and records the refs it was asked for.
type fakePages struct {
	home    cache.Page
	post    map[string]cache.Page
	err     error
	postErr map[string]error
	refs    []string
}

func (f *fakePages) Home(_ context.Context, ref string) (cache.Page, error) {
	f.refs = append(f.refs, ref)
	return f.home, f.err
}

func (f *fakePages) Post(_ context.Context, uid, ref string) (cache.Page, error) {
	f.refs = append(f.refs, ref)
	if err := f.postErr[uid]; err != nil {
		return cache.Page{}, err
	}
	if f.err != nil {
		return cache.Page{}, f.err
	}
	page, ok := f.post[uid]
	if !ok {
		return cache.Page{}, fmt.Errorf("load post %q: %w", uid, prismic.ErrNotFound)
	}
	return page, nil
}

// published is a cached page generated at a fixed time.
func published(html string) cache.Page {
	return cache.Page{HTML: []byte(html), GeneratedAt: time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)}
}

// fakeFetcher serves API pages keyed by cursor URL.
type fakeFetcher struct {
	pages   map[string]*prismic.SearchResponse
	err     error
	fetched []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, pageURL string) (*prismic.SearchResponse, error) {
	f.fetched = append(f.fetched, pageURL)
	if f.err != nil {
		return nil, f.err
	}
	resp, ok := f.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("unexpected cursor %q", pageURL)
	}
	return resp, nil
}

func publication(uid, date string) prismic.Document {
	d := date
	return prismic.Document{
		ID:                   "id-" + uid,
		UID:                  uid,
		Type:                 models.PublicationsType,
		FirstPublicationDate: &d,
		Data:                 []byte(fmt.Sprintf(`{"title":"Post %s","subtitle":"Sub %s","author":"Joseph Oliveira"}`, uid, uid)),
	}
}

func testRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	rn, err := render.New(false)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return rn
}

func testPublic(t *testing.T, pg PageGenerator, fetcher *fakeFetcher) *Public {
	t.Helper()
	if fetcher == nil {
		fetcher = &fakeFetcher{}
	}
	pub, err := NewPublic(pg, testRenderer(t), fetcher, testAPI)
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	return pub
}

// testRouter mounts the handlers on their production paths.
func testRouter(pub *Public, prev *Preview) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if pub != nil {
		r.NotFound(pub.NotFound)
		r.Get("/", pub.Homepage)
		r.Get("/post/{slug}", pub.Post)
		r.Get("/posts/more", pub.LoadMore)
	}
	if prev != nil {
		r.Get("/api/preview", prev.Enter)
		r.Get("/api/exit-preview", prev.Exit)
	}
	return r
}

// withPreviewRef returns r as seen after the LoadPreview middleware for a
// visitor in preview mode.
func withPreviewRef(r *http.Request, ref string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.PreviewRefKey, ref))
}

// chiRequest builds a request with the slug URL parameter set, for calling
// a handler directly.
func chiRequest(path, slug string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("slug", slug)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
