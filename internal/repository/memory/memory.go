// Package memory implements the repository interfaces with plain maps.
//
// It is the second implementation of the storage contract: observationally
// identical to the sqlite backend, but with no file and no driver. Two jobs:
// running the server with STORE=memory (demos, throwaway environments), and
// standing in for the database in service tests — injecting this store is
// much faster than spinning up SQLite per test.
//
// A single RWMutex guards everything. The write volume of a snippet site is
// nowhere near the point where per-table locks would pay for their
// complexity, and the coarse lock gives us atomic check-then-write for the
// like/view toggles for free.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nafis/snipnest/internal/model"
)

// Store holds all application data in maps keyed by entity ID.
// The nested maps for likes/views/follows make the uniqueness invariants
// structural: a map key can only exist once.
type Store struct {
	mu            sync.RWMutex
	users         map[string]*model.User
	snippets      map[string]*model.Snippet
	likes         map[string]map[string]time.Time // snippetID → userID → liked at
	views         map[string]map[string]string    // snippetID → viewerKey → userID ("" = anonymous)
	follows       map[string]map[string]time.Time // followerID → followingID → followed at
	notifications map[string]*model.Notification
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:         make(map[string]*model.User),
		snippets:      make(map[string]*model.Snippet),
		likes:         make(map[string]map[string]time.Time),
		views:         make(map[string]map[string]string),
		follows:       make(map[string]map[string]time.Time),
		notifications: make(map[string]*model.Notification),
	}
}

// Close satisfies repository.Store. Nothing to release.
func (s *Store) Close() error {
	return nil
}

// equalFold matches the COLLATE NOCASE behavior of the sqlite backend for
// username/email uniqueness and lookups.
func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

// page applies limit/offset with the same defaults as the sqlite backend
// (page size 20, cap 100).
func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

// sortNewestFirst orders by CreatedAt descending, ID descending on ties —
// the same ORDER BY every sqlite list query uses.
func sortNewestFirst[T any](items []T, createdAt func(T) time.Time, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := createdAt(items[i]), createdAt(items[j])
		if ti.Equal(tj) {
			return id(items[i]) > id(items[j])
		}
		return ti.After(tj)
	})
}
