// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go keeps generated pages of the published view in Valkey. Each page
// is a hash holding the HTML and the time it was generated, which the
// handlers turn into Last-Modified and conditional responses.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// Hash fields of a cached page.
	fieldHTML        = "html"
	fieldGeneratedAt = "generated_at"

	// DefaultPageTTL is how long a generated page stays cached.
	DefaultPageTTL = 5 * time.Minute

	// scanBatch is the COUNT hint used while invalidating.
	scanBatch = 100
)

// Page is a generated page. A zero GeneratedAt marks a page that was not
// generated for the published view and must not be revalidated.
type Page struct {
	HTML        []byte
	GeneratedAt time.Time
}

// PageCache stores generated pages in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get returns the cached page for key. Errors and malformed entries count
// as a miss so the caller regenerates.
func (pc *PageCache) Get(ctx context.Context, key string) (Page, bool) {
	fields, err := pc.client.HGetAll(ctx, pageKeyPrefix+key).Result()
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return Page{}, false
	}
	if len(fields) == 0 {
		return Page{}, false
	}

	page, ok := decodePage(fields)
	if !ok {
		slog.Warn("page cache entry malformed", "key", key)
		return Page{}, false
	}
	slog.Debug("page cache hit", "key", key, "generated_at", page.GeneratedAt)
	return page, true
}

// Set stores page under key. Both fields and the expiry are written in one
// transaction so a reader never sees a page without its timestamp.
func (pc *PageCache) Set(ctx context.Context, key string, page Page) {
	k := pageKeyPrefix + key
	_, err := pc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k,
			fieldHTML, page.HTML,
			fieldGeneratedAt, strconv.FormatInt(page.GeneratedAt.Unix(), 10),
		)
		pipe.Expire(ctx, k, pc.ttl)
		return nil
	})
	if err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached page. Pages cached by a previous
// deploy may use other templates, so the generator calls this before
// pre-generating. Keys are unlinked so Valkey frees large pages in the
// background.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	var removed int
	iter := pc.client.Scan(ctx, 0, pageKeyPrefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := pc.client.Unlink(ctx, batch...).Err(); err != nil {
			slog.Warn("page cache unlink error", "error", err)
		} else {
			removed += len(batch)
		}
		batch = batch[:0]
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			flush()
		}
	}
	flush()
	if err := iter.Err(); err != nil {
		slog.Warn("page cache scan error", "error", err)
	}
	if removed > 0 {
		slog.Info("page cache cleared", "removed", removed)
	}
}

func decodePage(fields map[string]string) (Page, bool) {
	html, ok := fields[fieldHTML]
	if !ok {
		return Page{}, false
	}
	sec, err := strconv.ParseInt(fields[fieldGeneratedAt], 10, 64)
	if err != nil {
		return Page{}, false
	}
	return Page{HTML: []byte(html), GeneratedAt: time.Unix(sec, 0).UTC()}, true
}

// HomepageKey returns the cache key for the home page.
func HomepageKey() string {
	return "home"
}

// PostKey returns the cache key for the page of the post with the given uid.
func PostKey(uid string) string {
	return "post:" + uid
}
