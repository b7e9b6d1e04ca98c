// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"spacetraveling/internal/middleware"
	"spacetraveling/internal/preview"
	"spacetraveling/internal/render"
)

// PreviewWorkflow enters and exits preview mode.
type PreviewWorkflow interface {
	Enter(ctx context.Context, w http.ResponseWriter, r *http.Request, token, documentID string) (*preview.Result, error)
	Exit(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Preview groups the preview endpoints the CMS links to.
type Preview struct {
	workflow PreviewWorkflow
	renderer PageRenderer
}

// NewPreview creates the preview handler group.
func NewPreview(workflow PreviewWorkflow, renderer PageRenderer) *Preview {
	return &Preview{workflow: workflow, renderer: renderer}
}

// invalidToken is the body of every rejected preview entry.
var invalidToken = map[string]string{"message": "Invalid token"}

// Enter handles GET /api/preview?token=&documentId=. On success the
// preview ref is stored and the browser is sent to the previewed document
// by a page that redirects with both a meta refresh and a script.
func (p *Preview) Enter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := r.URL.Query().Get("token")
	documentID := r.URL.Query().Get("documentId")

	if msg := validatePreviewParams(token, documentID); msg != "" {
		writeJSON(w, http.StatusUnauthorized, invalidToken)
		return
	}

	result, err := p.workflow.Enter(ctx, w, r, token, documentID)
	if errors.Is(err, preview.ErrInvalidToken) {
		slog.Info("preview rejected", "document_id", documentID, "request_id", middleware.RequestIDFromCtx(ctx))
		writeJSON(w, http.StatusUnauthorized, invalidToken)
		return
	}
	if err != nil {
		slog.Error("enter preview failed", "error", err, "document_id", documentID, "request_id", middleware.RequestIDFromCtx(ctx))
		p.renderer.Error(w, r, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	p.renderer.Page(w, r, http.StatusOK, "redirect", &render.PageData{Data: result.Destination})
}

// Exit handles GET /api/exit-preview. It always redirects home; a failure
// to clear the session is logged.
func (p *Preview) Exit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := p.workflow.Exit(ctx, w, r); err != nil {
		slog.Error("exit preview failed", "error", err, "request_id", middleware.RequestIDFromCtx(ctx))
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}
