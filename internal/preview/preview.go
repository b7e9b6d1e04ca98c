// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package preview switches a visitor between the published view and a CMS
// preview. Entering exchanges a preview token and document id for the site
// path of that document and remembers the token as the visitor's content
// ref; exiting forgets it.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"spacetraveling/internal/models"
	"spacetraveling/internal/prismic"
)

// ErrInvalidToken means the token could not be resolved to a destination.
// It matches prismic.ErrInvalidToken under errors.Is.
var ErrInvalidToken = prismic.ErrInvalidToken

// StateStore persists the preview ref for a visitor across requests.
type StateStore interface {
	Get(ctx context.Context, r *http.Request) (ref string, ok bool, err error)
	Set(ctx context.Context, w http.ResponseWriter, r *http.Request, ref string) error
	Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Resolver resolves a preview token and document id to a site path.
type Resolver interface {
	ResolvePreview(ctx context.Context, token, documentID string, resolve prismic.LinkResolver) (string, error)
}

// SiteLinkResolver maps documents to the pages that display them:
// publications to /post/{uid}, everything else to the home page.
func SiteLinkResolver(doc *prismic.Document) string {
	if doc.Type == models.PublicationsType && doc.UID != "" {
		return "/post/" + doc.UID
	}
	return "/"
}

// Result is the outcome of a successful Enter.
type Result struct {
	// Destination is the site path of the previewed document.
	Destination string
}

// Workflow runs the preview state transitions.
type Workflow struct {
	resolver Resolver
	store    StateStore
}

// New creates a preview workflow.
func New(resolver Resolver, store StateStore) *Workflow {
	return &Workflow{resolver: resolver, store: store}
}

// Enter resolves token and documentID and, on success, stores token as the
// visitor's preview ref. Every resolution failure that is the token's fault
// returns an error matching ErrInvalidToken and leaves the stored state as
// it was. Other failures (network, server errors) are returned wrapped.
func (wf *Workflow) Enter(ctx context.Context, w http.ResponseWriter, r *http.Request, token, documentID string) (*Result, error) {
	dest, err := wf.resolver.ResolvePreview(ctx, token, documentID, SiteLinkResolver)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve preview: %w", err)
	}
	if dest == "" {
		return nil, ErrInvalidToken
	}

	if err := wf.store.Set(ctx, w, r, token); err != nil {
		return nil, fmt.Errorf("store preview ref: %w", err)
	}

	slog.Info("preview entered", "document_id", documentID, "destination", dest)
	return &Result{Destination: dest}, nil
}

// Exit forgets the visitor's preview ref. It succeeds when there is none.
func (wf *Workflow) Exit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := wf.store.Clear(ctx, w, r); err != nil {
		return fmt.Errorf("clear preview ref: %w", err)
	}
	return nil
}
