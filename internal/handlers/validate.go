// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// Validation limits for request parameters.
const (
	maxSlugLen       = 300
	maxCursorLen     = 2_000
	maxTokenLen      = 2_000
	maxDocumentIDLen = 100
)

// validateSlug checks a post slug path parameter and returns the first
// error found.
func validateSlug(slug string) string {
	if strings.TrimSpace(slug) == "" {
		return "Slug is required."
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	if strings.ContainsAny(slug, "/\\") {
		return "Slug must not contain slashes."
	}
	return ""
}

// validateCursor checks a load-more cursor. The cursor is a next_page URL
// of the content API and is fetched server-side, so it must point at the
// configured API host over the same scheme.
func validateCursor(cursor string, api *url.URL) string {
	if cursor == "" {
		return "Cursor is required."
	}
	if len(cursor) > maxCursorLen {
		return "Cursor is too long (max 2,000 characters)."
	}
	u, err := url.Parse(cursor)
	if err != nil || !u.IsAbs() {
		return "Cursor must be an absolute URL."
	}
	if u.Scheme != api.Scheme || !strings.EqualFold(u.Host, api.Host) {
		return "Cursor does not point at the content API."
	}
	if u.User != nil {
		return "Cursor must not carry credentials."
	}
	return ""
}

// validatePreviewParams checks the preview entry query parameters.
func validatePreviewParams(token, documentID string) string {
	if token == "" || documentID == "" {
		return "Token and documentId are required."
	}
	if len(token) > maxTokenLen {
		return "Token is too long."
	}
	if len(documentID) > maxDocumentIDLen {
		return "Document id is too long."
	}
	return ""
}
