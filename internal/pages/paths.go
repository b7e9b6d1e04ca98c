// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// paths.go tracks the post uids that have a generated page. A request for
// a known uid waits for generation; any other uid gets the loading
// placeholder if generation is slow.
package pages

import (
	"log/slog"
	"sync"
)

// pathSet is a concurrency-safe set of post uids.
type pathSet struct {
	mu      sync.RWMutex
	entries map[string]struct{}
}

// newPathSet creates an empty path set.
func newPathSet() *pathSet {
	return &pathSet{
		entries: make(map[string]struct{}),
	}
}

// has reports whether uid has been generated before.
func (s *pathSet) has(uid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[uid]
	return ok
}

// add records uid as generated.
func (s *pathSet) add(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[uid] = struct{}{}
	slog.Debug("post path declared", "uid", uid, "size", len(s.entries))
}

// remove forgets uid, e.g. after the post was unpublished.
func (s *pathSet) remove(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, uid)
}

// len returns the number of known uids.
func (s *pathSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
