// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package document loads a single post for its page, together with the
// chronologically previous and next posts used for cross-links.
package document

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"spacetraveling/internal/format"
	"spacetraveling/internal/models"
	"spacetraveling/internal/prismic"
)

// pathsPageSize is the page size used when listing paths to pre-generate.
// Only the first page is used; other posts are generated on first request.
const pathsPageSize = 2

// neighbourPageSize is the page size of the neighbour queries.
const neighbourPageSize = 2

// Client is the subset of the content client the workflow needs.
type Client interface {
	MasterRef(ctx context.Context) (string, error)
	Query(ctx context.Context, predicates []prismic.Predicate, opts prismic.QueryOptions) (*prismic.SearchResponse, error)
	GetByUID(ctx context.Context, docType, uid string, opts prismic.QueryOptions) (*prismic.Document, error)
}

// Props is everything the post page renders.
type Props struct {
	Post        *models.PostDetail
	NextPost    *models.Post
	PrevPost    *models.Post
	Preview     bool
	ReadingTime int
}

// Workflow loads posts and their neighbours.
type Workflow struct {
	client Client
}

// New creates a document workflow.
func New(client Client) *Workflow {
	return &Workflow{client: client}
}

// StaticPaths returns the uids of the posts to generate ahead of time.
func (wf *Workflow) StaticPaths(ctx context.Context) ([]string, error) {
	resp, err := wf.client.Query(ctx, publications(), prismic.QueryOptions{PageSize: pathsPageSize})
	if err != nil {
		return nil, fmt.Errorf("static paths: %w", err)
	}

	paths := make([]string, 0, len(resp.Results))
	for _, doc := range resp.Results {
		if doc.UID != "" {
			paths = append(paths, doc.UID)
		}
	}
	return paths, nil
}

// Load fetches the post with the given uid and its neighbours. A non-empty
// ref reads preview content and marks the props as a preview. A missing
// post returns an error matching prismic.ErrNotFound.
//
// With an empty ref the master ref is resolved once so the post and both
// neighbours are read from the same release.
func (wf *Workflow) Load(ctx context.Context, uid, ref string) (*Props, error) {
	readRef := ref
	if readRef == "" {
		master, err := wf.client.MasterRef(ctx)
		if err != nil {
			return nil, fmt.Errorf("load post %q: %w", uid, err)
		}
		readRef = master
	}

	doc, err := wf.client.GetByUID(ctx, models.PublicationsType, uid, prismic.QueryOptions{Ref: readRef})
	if err != nil {
		return nil, fmt.Errorf("load post %q: %w", uid, err)
	}

	post, err := format.PostDetail(doc)
	if err != nil {
		return nil, err
	}

	props := &Props{
		Post:        post,
		Preview:     ref != "",
		ReadingTime: ReadingTime(post.Data.Content),
	}

	// Neighbour lookups are independent of each other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		next, err := wf.neighbour(gctx, doc.ID, readRef, prismic.OrderByFirstPublicationAsc)
		props.NextPost = next
		return err
	})
	g.Go(func() error {
		prev, err := wf.neighbour(gctx, doc.ID, readRef, prismic.OrderByFirstPublicationDesc)
		props.PrevPost = prev
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load neighbours of %q: %w", uid, err)
	}

	return props, nil
}

// neighbour returns the first publication after id in the given ordering,
// or nil when there is none.
func (wf *Workflow) neighbour(ctx context.Context, id, ref, orderings string) (*models.Post, error) {
	resp, err := wf.client.Query(ctx, publications(), prismic.QueryOptions{
		Ref:       ref,
		PageSize:  neighbourPageSize,
		Orderings: orderings,
		After:     id,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	p, err := format.Post(&resp.Results[0])
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func publications() []prismic.Predicate {
	return []prismic.Predicate{prismic.At("document.type", models.PublicationsType)}
}
