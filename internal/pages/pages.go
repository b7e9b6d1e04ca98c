// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pages generates the site's HTML pages. Published pages are
// generated once, cached and served from the cache until they expire;
// preview pages are generated on every request and never cached. Posts
// that were not generated ahead of time are generated on first request
// while the visitor sees a loading placeholder.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"spacetraveling/internal/cache"
	"spacetraveling/internal/document"
	"spacetraveling/internal/models"
	"spacetraveling/internal/prismic"
	"spacetraveling/internal/render"
)

// DefaultFallbackWait is how long a request for an undeclared post waits
// for generation before it gets the placeholder.
const DefaultFallbackWait = 3 * time.Second

// prebuildWorkers bounds concurrent page generation during Prebuild.
const prebuildWorkers = 4

// ErrPending is returned by Post when generation of an undeclared post is
// still running. Generation continues in the background.
var ErrPending = errors.New("pages: post generation in progress")

// PageStore caches generated pages of the published view.
type PageStore interface {
	Get(ctx context.Context, key string) (cache.Page, bool)
	Set(ctx context.Context, key string, page cache.Page)
	InvalidateAll(ctx context.Context)
}

// Lister loads the first page of the post list.
type Lister interface {
	Initial(ctx context.Context, ref string) (*models.PostsPagination, error)
}

// Loader loads single posts and the uids to generate ahead of time.
type Loader interface {
	StaticPaths(ctx context.Context) ([]string, error)
	Load(ctx context.Context, uid, ref string) (*document.Props, error)
}

// Renderer turns page data into a complete HTML document.
type Renderer interface {
	Bytes(name string, data *render.PageData) ([]byte, error)
}

// Generator produces home and post pages.
type Generator struct {
	lister       Lister
	loader       Loader
	renderer     Renderer
	store        PageStore
	fallbackWait time.Duration

	paths *pathSet
	group singleflight.Group
	now   func() time.Time
}

// New creates a page generator. A zero fallbackWait uses DefaultFallbackWait.
func New(lister Lister, loader Loader, renderer Renderer, store PageStore, fallbackWait time.Duration) *Generator {
	if fallbackWait <= 0 {
		fallbackWait = DefaultFallbackWait
	}
	return &Generator{
		lister:       lister,
		loader:       loader,
		renderer:     renderer,
		store:        store,
		fallbackWait: fallbackWait,
		paths:        newPathSet(),
		now:          time.Now,
	}
}

// Prebuild clears pages cached by a previous run and generates the home
// page and the posts returned by the loader's static paths.
func (g *Generator) Prebuild(ctx context.Context) error {
	start := time.Now()
	g.store.InvalidateAll(ctx)

	if _, err := g.Home(ctx, ""); err != nil {
		return fmt.Errorf("prebuild home: %w", err)
	}

	uids, err := g.loader.StaticPaths(ctx)
	if err != nil {
		return fmt.Errorf("prebuild: %w", err)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(prebuildWorkers)
	for _, uid := range uids {
		uid := uid
		eg.Go(func() error {
			_, err := g.generatePost(egCtx, uid)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("prebuild posts: %w", err)
	}

	slog.Info("pages prebuilt", "posts", g.paths.len(), "duration", time.Since(start))
	return nil
}

// Home returns the home page. An empty ref serves the cached published
// page, generating it on a miss; a preview ref always generates.
func (g *Generator) Home(ctx context.Context, ref string) (cache.Page, error) {
	if ref != "" {
		html, err := g.renderHome(ctx, ref)
		return cache.Page{HTML: html}, err
	}

	key := cache.HomepageKey()
	if page, ok := g.store.Get(ctx, key); ok {
		return page, nil
	}

	// Waiters share one generation, so it must not end with the request
	// that happened to start it.
	genCtx := context.WithoutCancel(ctx)
	v, err, _ := g.group.Do(key, func() (any, error) {
		html, err := g.renderHome(genCtx, "")
		if err != nil {
			return nil, err
		}
		page := g.published(html)
		g.store.Set(genCtx, key, page)
		return page, nil
	})
	if err != nil {
		return cache.Page{}, err
	}
	return v.(cache.Page), nil
}

func (g *Generator) renderHome(ctx context.Context, ref string) ([]byte, error) {
	pagination, err := g.lister.Initial(ctx, ref)
	if err != nil {
		return nil, err
	}
	return g.renderer.Bytes("home", &render.PageData{
		Title:   "Home",
		Preview: ref != "",
		Data:    pagination,
	})
}

// published stamps freshly generated HTML with the generation time at
// HTTP date precision.
func (g *Generator) published(html []byte) cache.Page {
	return cache.Page{HTML: html, GeneratedAt: g.now().UTC().Truncate(time.Second)}
}

// Post returns the page of the post with the given uid. A preview ref
// always generates. In the published view a cached page is served as is;
// on a miss, a declared uid waits for generation while an undeclared one
// waits at most the fallback wait and then gets ErrPending. A missing post
// returns an error matching prismic.ErrNotFound.
func (g *Generator) Post(ctx context.Context, uid, ref string) (cache.Page, error) {
	if ref != "" {
		html, err := g.renderPost(ctx, uid, ref)
		return cache.Page{HTML: html}, err
	}

	if page, ok := g.store.Get(ctx, cache.PostKey(uid)); ok {
		return page, nil
	}

	if g.paths.has(uid) {
		return g.generatePost(ctx, uid)
	}

	// Generation outlives the request that triggered it so a later
	// request finds the page in the cache.
	genCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(cache.PostKey(uid), func() (any, error) {
		return g.generate(genCtx, uid)
	})

	timer := time.NewTimer(g.fallbackWait)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return cache.Page{}, res.Err
		}
		return res.Val.(cache.Page), nil
	case <-timer.C:
		slog.Debug("post generation pending", "uid", uid)
		return cache.Page{}, ErrPending
	case <-ctx.Done():
		return cache.Page{}, ctx.Err()
	}
}

// generatePost generates uid and waits for it, collapsing concurrent
// generations. The generation shares its singleflight key with the
// background path above, so it runs detached from the caller's
// cancellation as well.
func (g *Generator) generatePost(ctx context.Context, uid string) (cache.Page, error) {
	genCtx := context.WithoutCancel(ctx)
	v, err, _ := g.group.Do(cache.PostKey(uid), func() (any, error) {
		return g.generate(genCtx, uid)
	})
	if err != nil {
		return cache.Page{}, err
	}
	return v.(cache.Page), nil
}

// generate renders the published page of uid, caches it and declares uid.
func (g *Generator) generate(ctx context.Context, uid string) (cache.Page, error) {
	html, err := g.renderPost(ctx, uid, "")
	if errors.Is(err, prismic.ErrNotFound) {
		g.paths.remove(uid)
		return cache.Page{}, err
	}
	if err != nil {
		slog.Error("post generation failed", "uid", uid, "error", err)
		return cache.Page{}, err
	}

	page := g.published(html)
	g.store.Set(ctx, cache.PostKey(uid), page)
	g.paths.add(uid)
	return page, nil
}

func (g *Generator) renderPost(ctx context.Context, uid, ref string) ([]byte, error) {
	props, err := g.loader.Load(ctx, uid, ref)
	if err != nil {
		return nil, err
	}
	return g.renderer.Bytes("post", &render.PageData{
		Title:   props.Post.Data.Title,
		Preview: props.Preview,
		Data:    props,
	})
}
