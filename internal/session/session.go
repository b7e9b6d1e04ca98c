// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides Valkey-backed preview sessions.
// A session is identified by a secure cookie and stored as JSON in Valkey
// with automatic TTL expiry. It holds the preview ref of a visitor who
// entered preview mode from the CMS.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the preview session cookie.
	CookieName = "st_preview"

	// DefaultTTL is how long a preview session lives without being refreshed.
	DefaultTTL = 30 * time.Minute

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "preview:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// Data is the session payload stored in Valkey.
type Data struct {
	Ref       string    `json:"ref"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages preview session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// A zero ttl uses DefaultTTL; secure marks the cookie Secure for TLS
// deployments.
func NewStore(client *redis.Client, ttl time.Duration, secure bool) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl, secure: secure}
}

// Create generates a new session, stores it in Valkey and sets the
// session cookie on the response. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now()
	if err := s.save(ctx, id, data); err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id, nil
}

// Load retrieves session data using the session ID from the request
// cookie. Returns nil if no valid session exists.
func (s *Store) Load(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	return &data, nil
}

// Update replaces the session data without changing the session ID or
// cookie. Resets the TTL.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return fmt.Errorf("session update: no cookie")
	}
	return s.save(ctx, cookie.Value, data)
}

// Destroy removes the session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil // No cookie, nothing to destroy
	}

	if err := s.client.Del(ctx, keyPrefix+cookie.Value).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})

	return nil
}

// Get returns the preview ref held by the request's session.
func (s *Store) Get(ctx context.Context, r *http.Request) (string, bool, error) {
	data, err := s.Load(ctx, r)
	if err != nil || data == nil || data.Ref == "" {
		return "", false, err
	}
	return data.Ref, true, nil
}

// Set stores ref in the request's session, reusing a live session and
// creating one otherwise.
func (s *Store) Set(ctx context.Context, w http.ResponseWriter, r *http.Request, ref string) error {
	data, err := s.Load(ctx, r)
	if err != nil {
		return err
	}
	if data == nil {
		_, err := s.Create(ctx, w, &Data{Ref: ref})
		return err
	}
	data.Ref = ref
	return s.Update(ctx, r, data)
}

// Clear forgets the preview ref. It is a no-op without a session.
func (s *Store) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return s.Destroy(ctx, w, r)
}

func (s *Store) save(ctx context.Context, id string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
