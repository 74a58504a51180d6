// Package history persists recently used datasets.
//
// The store keeps a single JSON list per key, most recent first, capped at
// MaxEntries. It sits on top of a KeyValueStore so the same logic runs
// against memory, a directory of files, SQLite or Postgres.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/sortly/internal/core"
)

// DefaultKey is the key the history list is stored under.
const DefaultKey = "sortly:history"

// MaxEntries is the default number of entries kept.
const MaxEntries = 30

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("history entry not found")

// Store manages the history list in a KeyValueStore.
type Store struct {
	kv         KeyValueStore
	key        string
	maxEntries int

	// mu serializes read-modify-write cycles for backends without Updater.
	mu *sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithMaxEntries overrides MaxEntries. Values <= 0 are ignored.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// NewStore creates a history store backed by kv.
func NewStore(kv KeyValueStore, opts ...Option) *Store {
	s := &Store{
		kv:         kv,
		key:        DefaultKey,
		maxEntries: MaxEntries,
		mu:         &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns a store for a separate list under "<key>:<name>", sharing
// the backend. The HTTP server uses one namespace per client.
func (s *Store) Namespace(name string) *Store {
	return &Store{
		kv:         s.kv,
		key:        s.key + ":" + name,
		maxEntries: s.maxEntries,
		mu:         s.mu,
	}
}

// Key returns the key the list is stored under.
func (s *Store) Key() string {
	return s.key
}

// Save inserts e at the front, replacing any entry with the same id, and
// truncates the list to the cap.
func (s *Store) Save(ctx context.Context, e core.HistoryEntry) error {
	if e.ID == "" {
		return fmt.Errorf("history store: save: entry has no id")
	}
	return s.update(ctx, func(list []core.HistoryEntry) []core.HistoryEntry {
		out := make([]core.HistoryEntry, 0, len(list)+1)
		out = append(out, e)
		for _, old := range list {
			if old.ID != e.ID {
				out = append(out, old)
			}
		}
		if len(out) > s.maxEntries {
			out = out[:s.maxEntries]
		}
		return out
	})
}

// Load returns all entries, most recent first. A corrupt stored value is
// treated as an empty history.
func (s *Store) Load(ctx context.Context) ([]core.HistoryEntry, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("history store: load: %w", err)
	}
	if !ok {
		return []core.HistoryEntry{}, nil
	}
	return s.decode(raw), nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (core.HistoryEntry, error) {
	list, err := s.Load(ctx)
	if err != nil {
		return core.HistoryEntry{}, err
	}
	for _, e := range list {
		if e.ID == id {
			return e, nil
		}
	}
	return core.HistoryEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the entry with the given id. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.update(ctx, func(list []core.HistoryEntry) []core.HistoryEntry {
		out := list[:0]
		for _, e := range list {
			if e.ID != id {
				out = append(out, e)
			}
		}
		return out
	})
}

// Clear empties the history.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Set(ctx, s.key, []byte("[]")); err != nil {
		return fmt.Errorf("history store: clear: %w", err)
	}
	return nil
}

// update applies fn to the current list and writes the result back.
func (s *Store) update(ctx context.Context, fn func([]core.HistoryEntry) []core.HistoryEntry) error {
	apply := func(old []byte) ([]byte, error) {
		var list []core.HistoryEntry
		if old != nil {
			list = s.decode(old)
		}
		return json.Marshal(fn(list))
	}

	if u, ok := s.kv.(Updater); ok {
		if err := u.Update(ctx, s.key, apply); err != nil {
			return fmt.Errorf("history store: update: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, _, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("history store: read: %w", err)
	}
	next, err := apply(old)
	if err != nil {
		return fmt.Errorf("history store: encode: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, next); err != nil {
		return fmt.Errorf("history store: write: %w", err)
	}
	return nil
}

func (s *Store) decode(raw []byte) []core.HistoryEntry {
	var list []core.HistoryEntry
	if err := json.Unmarshal(raw, &list); err != nil {
		slog.Warn("history store: discarding unreadable history", "key", s.key, "error", err)
		return []core.HistoryEntry{}
	}
	if list == nil {
		list = []core.HistoryEntry{}
	}
	return list
}
