// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// cleanupInterval is how often idle clients are forgotten.
const cleanupInterval = 5 * time.Minute

// limiterEntry tracks request timestamps for one client in one bucket.
type limiterEntry struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// RateLimiter counts requests per client IP in a sliding window. Routes
// draw from named buckets with their own budgets, so a visitor paging
// through posts does not use up the preview budget and the other way
// round.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*limiterEntry // keyed by bucket and IP
	window  time.Duration
	errs    ErrorRenderer
	now     func() time.Time
	stopCh  chan struct{}
}

// NewRateLimiter creates a rate limiter with the given sliding window.
// Rejected requests get the site's 429 page from errs. It starts a
// background goroutine that forgets idle clients; call Stop to end it.
func NewRateLimiter(window time.Duration, errs ErrorRenderer) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*limiterEntry),
		window:  window,
		errs:    errs,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Limit returns middleware that allows each client limit requests per
// window from bucket. A limit of zero or less disables the bucket.
func (rl *RateLimiter) Limit(bucket string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, wait := rl.allow(bucket+"|"+ip, limit)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			slog.Warn("rate limit exceeded",
				"bucket", bucket,
				"ip", ip,
				"path", r.URL.Path,
				"retry_after", wait.String(),
				"request_id", RequestIDFromCtx(r.Context()),
			)
			w.Header().Set("Retry-After", retryAfterSeconds(wait))
			rl.errs.Error(w, r, http.StatusTooManyRequests)
		})
	}
}

// allow records a request for key when it is within limit. When it is
// not, it returns how long until the oldest request leaves the window.
func (rl *RateLimiter) allow(key string, limit int) (bool, time.Duration) {
	rl.mu.RLock()
	entry, exists := rl.clients[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		entry, exists = rl.clients[key]
		if !exists {
			entry = &limiterEntry{}
			rl.clients[key] = entry
		}
		rl.mu.Unlock()
	}

	now := rl.now()
	cutoff := now.Add(-rl.window)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Timestamps are appended in order, so expired ones form a prefix.
	i := 0
	for i < len(entry.timestamps) && !entry.timestamps[i].After(cutoff) {
		i++
	}
	entry.timestamps = entry.timestamps[i:]

	if len(entry.timestamps) >= limit {
		return false, entry.timestamps[0].Add(rl.window).Sub(now)
	}
	entry.timestamps = append(entry.timestamps, now)
	return true, 0
}

// cleanup forgets clients whose last request left the window.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, entry := range rl.clients {
		entry.mu.Lock()
		n := len(entry.timestamps)
		idle := n == 0 || !entry.timestamps[n-1].After(cutoff)
		entry.mu.Unlock()

		if idle {
			delete(rl.clients, key)
		}
	}
}

// retryAfterSeconds formats wait as a Retry-After value, rounding up to
// whole seconds with a minimum of one.
func retryAfterSeconds(wait time.Duration) string {
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP extracts the client's IP address, checking X-Forwarded-For
// and X-Real-IP headers for proxied requests.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The leftmost address is the original client.
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
