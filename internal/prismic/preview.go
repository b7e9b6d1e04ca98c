// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package prismic

import (
	"context"
	"errors"
	"net/http"
)

// LinkResolver maps a document to the site path that displays it.
type LinkResolver func(doc *Document) string

// ResolvePreview looks up documentID under the preview ref token and
// returns the site path for it. It returns "" with a nil error when the
// ref is accepted but no such document exists, and ErrInvalidToken when
// the API rejects the ref itself.
func (c *Client) ResolvePreview(ctx context.Context, token, documentID string, resolve LinkResolver) (string, error) {
	if token == "" || documentID == "" {
		return "", ErrInvalidToken
	}

	doc, err := c.GetByID(ctx, documentID, QueryOptions{Ref: token})
	switch {
	case errors.Is(err, ErrNotFound):
		return "", nil
	case IsAPIStatus(err, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound):
		return "", errors.Join(ErrInvalidToken, err)
	case err != nil:
		return "", err
	}
	return resolve(doc), nil
}
