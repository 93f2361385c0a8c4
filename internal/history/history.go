// Package history implements the bounded clipboard history.
//
// Entries are kept newest-first. A new entry is dropped when it is blank or
// identical to the current head; otherwise it is prepended and the oldest
// entries are evicted past the configured bound. The same text may appear
// more than once when it was copied again after something else.
//
// The list is persisted as a JSON array under a single key of a kv.Store and
// written back after every mutation.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.klb.dev/recall/internal/kv"
)

const (
	// Key is the kv key the history is persisted under.
	Key = "history"

	// DefaultMaxItems is used when the configured bound is not positive.
	DefaultMaxItems = 50
)

// Entry is one captured clipboard snapshot.
type Entry struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// Time returns the capture time.
func (e Entry) Time() time.Time { return time.UnixMilli(e.Timestamp) }

// Option configures a Store.
type Option func(*Store)

// WithMaxItems sets the function consulted for the history bound on every
// Add. Non-positive results fall back to DefaultMaxItems.
func WithMaxItems(f func() int) Option {
	return func(s *Store) { s.maxItems = f }
}

// WithClock overrides time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the in-memory history backed by a kv.Store. It is loaded lazily on
// first use and is safe for concurrent use.
type Store struct {
	kv       kv.Store
	maxItems func() int
	now      func() time.Time

	mu      sync.RWMutex
	loaded  bool
	entries []Entry
}

// New returns a Store persisting to backend.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:       backend,
		maxItems: func() int { return DefaultMaxItems },
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load (re)reads the persisted history, replacing the in-memory list. It never
// fails: a missing, unreadable or corrupt value yields an empty history.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) {
	s.entries = decode(ctx, s.kv)
	s.loaded = true
}

func decode(ctx context.Context, backend kv.Store) []Entry {
	raw, ok, err := backend.Get(ctx, Key)
	if err != nil {
		slog.Warn("history: load failed, starting empty", "err", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		slog.Warn("history: stored value is corrupt, starting empty", "err", err)
		return nil
	}
	for i := range entries {
		entries[i].Text = sanitize(entries[i].Text)
	}
	return entries
}

// sanitize replaces invalid UTF-8 with U+FFFD, the form JSON and protobuf
// carry it in, so memory, disk and the wire hold the same text.
func sanitize(text string) string {
	return strings.ToValidUTF8(text, "\uFFFD")
}

// ensureLoaded upgrades to a write lock only on the first call.
func (s *Store) ensureLoaded(ctx context.Context) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}
	s.mu.Lock()
	if !s.loaded {
		s.loadLocked(ctx)
	}
	s.mu.Unlock()
}

// Add records text as the newest entry. It reports whether the history
// changed; blank text and a repeat of the current head are ignored. The
// in-memory list is updated even when persisting fails, in which case the
// error is returned.
func (s *Store) Add(ctx context.Context, text string) (bool, error) {
	text = sanitize(text)
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.loadLocked(ctx)
	}

	if len(s.entries) > 0 && s.entries[0].Text == text {
		return false, nil
	}

	e := Entry{Text: text, Timestamp: s.now().UnixMilli()}
	s.entries = append([]Entry{e}, s.entries...)
	if limit := s.limit(); len(s.entries) > limit {
		s.entries = s.entries[:limit]
	}
	logCapture(e, len(s.entries))

	return true, s.persistLocked(ctx)
}

// Get returns the text at index (0 = newest). ok is false when index is out
// of range.
func (s *Store) Get(ctx context.Context, index int) (string, bool) {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.entries) {
		return "", false
	}
	return s.entries[index].Text, true
}

// List returns a copy of the history, newest first.
func (s *Store) List(ctx context.Context) []Entry {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len(ctx context.Context) int {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Replace swaps the whole history for entries (newest first), truncated to
// the current bound, and persists it.
func (s *Store) Replace(ctx context.Context, entries []Entry) error {
	next := make([]Entry, len(entries))
	copy(next, entries)
	for i := range next {
		next[i].Text = sanitize(next[i].Text)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if limit := s.limit(); len(next) > limit {
		next = next[:limit]
	}
	s.entries = next
	s.loaded = true
	return s.persistLocked(ctx)
}

// Clear empties the history.
func (s *Store) Clear(ctx context.Context) error {
	return s.Replace(ctx, nil)
}

func (s *Store) limit() int {
	if n := s.maxItems(); n > 0 {
		return n
	}
	return DefaultMaxItems
}

// persistLocked must be called with s.mu held.
func (s *Store) persistLocked(ctx context.Context) error {
	entries := s.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("history: persist: %w", err)
	}
	return nil
}
