// Package cycle tracks where the user is while repeatedly stepping back
// through clipboard history.
//
// A cycle session is a run of cycle actions each within the configured timeout
// of the previous one. The first action of a session selects the newest entry;
// each following action selects the next older one, wrapping at the cycle
// limit. The state is a single position and the time of the last successful
// action, persisted so that it survives across short-lived processes.
package cycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.klb.dev/recall/internal/kv"
)

const (
	// Key is the kv key the cycle state is persisted under.
	Key = "cycleState"

	DefaultLimit   = 10
	DefaultTimeout = 2 * time.Second

	// PreviewRunes is how much of the restored text the notice shows.
	PreviewRunes = 75
)

// State is the persisted cycle position.
type State struct {
	Position  int   `json:"position"`
	Timestamp int64 `json:"timestamp"` // Unix milliseconds of the last successful cycle
}

// Phase distinguishes the two ways a cycle action can begin.
type Phase int

const (
	// Fresh means the previous action is older than the timeout (or there was
	// none); the session restarts at position 0.
	Fresh Phase = iota
	// Continuing means the previous action is within the timeout; the
	// position advances by one.
	Continuing
)

func (p Phase) String() string {
	switch p {
	case Fresh:
		return "fresh"
	case Continuing:
		return "continuing"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Advance computes the state a cycle action at now moves to from prev.
// limit and timeout fall back to their defaults when not positive.
func Advance(prev State, now time.Time, limit int, timeout time.Duration) (State, Phase) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	next := State{Timestamp: now.UnixMilli()}
	if now.UnixMilli()-prev.Timestamp < timeout.Milliseconds() && prev.Position >= 0 {
		next.Position = (prev.Position + 1) % limit
		return next, Continuing
	}
	return next, Fresh
}

// Preview shortens text for a notice: the first PreviewRunes runes, with
// "..." appended when anything was cut.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewRunes {
		return text
	}
	return string([]rune(text)[:PreviewRunes]) + "..."
}

// Store reads and writes State through a kv.Store.
type Store struct {
	kv kv.Store
}

// NewStore returns a Store persisting to backend.
func NewStore(backend kv.Store) *Store {
	return &Store{kv: backend}
}

// Get returns the persisted state, or the zero State when none is stored or
// the stored value cannot be read.
func (s *Store) Get(ctx context.Context) State {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		slog.Warn("cycle: load failed, using default state", "err", err)
		return State{}
	}
	if !ok || raw == "" {
		return State{}
	}
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		slog.Warn("cycle: stored state is corrupt, using default", "err", err)
		return State{}
	}
	return st
}

// Set persists st, replacing any previous value. No validation is done.
func (s *Store) Set(ctx context.Context, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("cycle: encode: %w", err)
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("cycle: persist: %w", err)
	}
	return nil
}
