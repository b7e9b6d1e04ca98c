// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package prismic

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup matched no document.
	ErrNotFound = errors.New("prismic: document not found")

	// ErrInvalidToken is returned by ResolvePreview when the API rejects
	// the preview ref (unknown, expired or malformed).
	ErrInvalidToken = errors.New("prismic: invalid preview token")

	// ErrSchema wraps every SchemaError so callers can match on it.
	ErrSchema = errors.New("prismic: unexpected response shape")

	// ErrNoMasterRef means the API root listed no master ref.
	ErrNoMasterRef = errors.New("prismic: api has no master ref")
)

// APIError is a non-2xx response from the content API.
type APIError struct {
	Status  int
	Type    string // e.g. "api_notfound_error"; empty when the body had none
	Message string
	URL     string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("prismic: %s returned %d (%s): %s", e.URL, e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("prismic: %s returned %d: %s", e.URL, e.Status, e.Message)
}

// SchemaError reports a response that decoded but is missing a field the
// site depends on.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("prismic: field %q: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrSchema) match.
func (e *SchemaError) Unwrap() error { return ErrSchema }
