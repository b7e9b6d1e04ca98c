// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package listing produces the home page's list of posts: the first page
// at generation time and further pages on demand through a Session that
// follows the API's opaque next_page cursor.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"spacetraveling/internal/format"
	"spacetraveling/internal/models"
	"spacetraveling/internal/prismic"
)

// PageSize is the number of posts per page, on the first page and on every
// page reached through the cursor.
const PageSize = 2

var (
	// ErrExhausted is returned by LoadMore once the last page was loaded.
	ErrExhausted = errors.New("listing: no more pages")

	// ErrInFlight is returned by LoadMore while another LoadMore on the
	// same session has not finished.
	ErrInFlight = errors.New("listing: a page is already loading")
)

// Querier runs the initial search.
type Querier interface {
	Query(ctx context.Context, predicates []prismic.Predicate, opts prismic.QueryOptions) (*prismic.SearchResponse, error)
}

// PageFetcher follows a next_page cursor.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*prismic.SearchResponse, error)
}

// Workflow loads the first page of publications.
type Workflow struct {
	client Querier
}

// New creates a listing workflow.
func New(client Querier) *Workflow {
	return &Workflow{client: client}
}

// Initial returns the first page of publications. An empty ref reads the
// published content; a preview ref overrides it.
func (wf *Workflow) Initial(ctx context.Context, ref string) (*models.PostsPagination, error) {
	resp, err := wf.client.Query(ctx,
		[]prismic.Predicate{prismic.At("document.type", models.PublicationsType)},
		prismic.QueryOptions{PageSize: PageSize, Ref: ref},
	)
	if err != nil {
		return nil, fmt.Errorf("listing initial page: %w", err)
	}

	posts, err := format.PostsResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("listing initial page: %w", err)
	}
	return &models.PostsPagination{NextPage: resp.NextPage, Results: posts}, nil
}

// Session is the append-only list of posts shown on one page view plus the
// cursor to the next page. Once the cursor runs out the session is
// exhausted for good.
type Session struct {
	fetcher   PageFetcher
	results   []models.Post
	nextPage  string
	exhausted bool
	loading   atomic.Bool
}

// NewSession starts a session from an initial page.
func NewSession(fetcher PageFetcher, initial *models.PostsPagination) *Session {
	s := &Session{fetcher: fetcher}
	if initial != nil {
		s.results = append(s.results, initial.Results...)
		s.setCursor(initial.NextPage)
	} else {
		s.exhausted = true
	}
	return s
}

// ResumeSession starts an empty session positioned at cursor, for a
// request that only needs the pages after one the client already shows.
func ResumeSession(fetcher PageFetcher, cursor string) *Session {
	return NewSession(fetcher, &models.PostsPagination{NextPage: &cursor})
}

func (s *Session) setCursor(next *string) {
	if next == nil || *next == "" {
		s.nextPage = ""
		s.exhausted = true
		return
	}
	s.nextPage = *next
}

// Results returns the posts accumulated so far, in fetch order.
func (s *Session) Results() []models.Post {
	return s.results
}

// NextPage returns the current cursor, or "" when exhausted.
func (s *Session) NextPage() string {
	return s.nextPage
}

// Exhausted reports whether the last page has been loaded.
func (s *Session) Exhausted() bool {
	return s.exhausted
}

// Pagination returns the session as the API-shaped page value.
func (s *Session) Pagination() *models.PostsPagination {
	p := &models.PostsPagination{Results: s.results}
	if p.Results == nil {
		p.Results = []models.Post{}
	}
	if !s.exhausted {
		next := s.nextPage
		p.NextPage = &next
	}
	return p
}

// LoadMore fetches the page at the current cursor, appends its posts and
// moves the cursor. It returns only the newly added posts. A failed fetch
// leaves the session unchanged. Overlapping calls get ErrInFlight.
func (s *Session) LoadMore(ctx context.Context) ([]models.Post, error) {
	if !s.loading.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer s.loading.Store(false)

	if s.exhausted {
		return nil, ErrExhausted
	}

	resp, err := s.fetcher.FetchPage(ctx, s.nextPage)
	if err != nil {
		return nil, fmt.Errorf("listing load more: %w", err)
	}
	posts, err := format.PostsResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("listing load more: %w", err)
	}

	s.results = append(s.results, posts...)
	s.setCursor(resp.NextPage)
	return posts, nil
}
