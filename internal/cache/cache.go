// Package cache holds the in-memory mapping from normalized usernames to
// their last-known chat records.
package cache

import (
	"strings"
	"sync"

	"github.com/blockedby/resolver-os/internal/models"
)

// Normalize strips one leading "@" and lower-cases a username. All cache
// keys go through this, usernames are case-insensitive on Telegram's side.
func Normalize(username string) string {
	return strings.ToLower(strings.TrimPrefix(username, "@"))
}

// Store is a concurrency-safe username -> ChatRecord map. Values reflect the
// most recent successful authoritative fetch and stay valid until a scrape
// proves otherwise.
type Store struct {
	mu      sync.RWMutex
	entries map[string]models.ChatRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]models.ChatRecord)}
}

// Get returns the record for a username, normalizing the key first.
func (s *Store) Get(username string) (models.ChatRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.entries[Normalize(username)]
	return rec, ok
}

// Put stores a record under the normalized username, overwriting any
// previous entry.
func (s *Store) Put(username string, rec models.ChatRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Normalize(username)] = rec
}

// Seed bulk-loads entries, used once at startup with the persisted snapshot.
// Keys are normalized defensively in case the snapshot predates normalization.
func (s *Store) Seed(entries map[string]models.ChatRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for username, rec := range entries {
		s.entries[Normalize(username)] = rec
	}
}

// Snapshot returns a copy of all entries, a consistent view for the
// persistence collaborator.
func (s *Store) Snapshot() map[string]models.ChatRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.ChatRecord, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
