// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// PreviewRefKey is the context key for the visitor's preview ref.
	PreviewRefKey contextKey = "preview_ref"
)

// PreviewStore reads the preview ref held by a request's session.
type PreviewStore interface {
	Get(ctx context.Context, r *http.Request) (ref string, ok bool, err error)
}

// LoadPreview retrieves the preview ref from the session store and stores
// it in the request context. Downstream handlers can access it via
// PreviewRefFromCtx(). Preview requests are marked in the access log. A
// store failure is logged and the request is served
// from the published view.
func LoadPreview(store PreviewStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ref, ok, err := store.Get(r.Context(), r)
			if err != nil {
				slog.Warn("load preview session failed",
					"error", err,
					"request_id", RequestIDFromCtx(r.Context()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if ok {
				AddLogAttrs(r.Context(), slog.Bool("preview", true))
				ctx := context.WithValue(r.Context(), PreviewRefKey, ref)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PreviewRefFromCtx extracts the preview ref from the request context.
// Returns "" in the published view.
func PreviewRefFromCtx(ctx context.Context) string {
	ref, _ := ctx.Value(PreviewRefKey).(string)
	return ref
}
