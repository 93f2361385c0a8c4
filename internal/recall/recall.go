// Package recall implements the user-facing history operations: cycling
// through recent entries, restoring a specific entry, listing, adding and
// clearing. Every clipboard-touching operation ends with a notice to the user.
package recall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/recall/internal/clip"
	"go.klb.dev/recall/internal/config"
	"go.klb.dev/recall/internal/cycle"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/notify"
)

// Notices shown to the user.
const (
	NoticeNoHistory = "No history"
	NoticeRestored  = "Restored to clipboard"
)

var (
	// ErrNoHistory means the requested entry does not exist.
	ErrNoHistory = errors.New("no history")
	// ErrInvalidIndex means a restore position below 1 was requested.
	ErrInvalidIndex = errors.New("history positions start at 1")
)

// Service runs history operations against one set of collaborators.
type Service struct {
	History  *history.Store
	Cycles   *cycle.Store
	Clip     clip.Accessor
	Notifier notify.Notifier
	Config   config.Source

	// Now is the clock for cycle timing; time.Now when nil.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Cycle steps to the next entry of the current cycle session (or the newest
// entry when the session has expired), copies it to the clipboard and returns
// the notice shown. When the target entry does not exist the cycle state is
// left untouched and ErrNoHistory is returned after the "No history" notice.
func (s *Service) Cycle(ctx context.Context) (string, error) {
	cfg := s.Config.Current()
	prev := s.Cycles.Get(ctx)
	next, phase := cycle.Advance(prev, s.now(), cfg.CycleLimit, cfg.CycleTimeout)

	text, ok := s.History.Get(ctx, next.Position)
	if !ok {
		slog.Debug("cycle: no entry", "position", next.Position, "phase", phase)
		return s.noHistory(ctx)
	}

	if err := s.Cycles.Set(ctx, next); err != nil {
		return "", err
	}
	if err := s.Clip.WriteText(ctx, text); err != nil {
		return "", fmt.Errorf("clipboard write: %w", err)
	}

	msg := fmt.Sprintf("[%d/%d] %s", next.Position+1, cfg.CycleLimit, cycle.Preview(text))
	slog.Debug("cycle: restored", "position", next.Position, "phase", phase)
	s.notify(ctx, msg)
	return msg, nil
}

// Restore copies the nth entry (1 = newest) to the clipboard without touching
// the cycle state.
func (s *Service) Restore(ctx context.Context, n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidIndex, n)
	}
	text, ok := s.History.Get(ctx, n-1)
	if !ok {
		return s.noHistory(ctx)
	}
	if err := s.Clip.WriteText(ctx, text); err != nil {
		return "", fmt.Errorf("clipboard write: %w", err)
	}
	msg := fmt.Sprintf("Restored #%d", n)
	s.notify(ctx, msg)
	return msg, nil
}

// RestoreText copies text picked from a history listing to the clipboard.
func (s *Service) RestoreText(ctx context.Context, text string) (string, error) {
	if text == "" {
		return s.noHistory(ctx)
	}
	if err := s.Clip.WriteText(ctx, text); err != nil {
		return "", fmt.Errorf("clipboard write: %w", err)
	}
	s.notify(ctx, NoticeRestored)
	return NoticeRestored, nil
}

// List returns the history, newest first.
func (s *Service) List(ctx context.Context) []history.Entry {
	return s.History.List(ctx)
}

// Add records text in the history as if it had been copied.
func (s *Service) Add(ctx context.Context, text string) (bool, error) {
	return s.History.Add(ctx, text)
}

// Clear empties the history.
func (s *Service) Clear(ctx context.Context) error {
	return s.History.Clear(ctx)
}

func (s *Service) noHistory(ctx context.Context) (string, error) {
	s.notify(ctx, NoticeNoHistory)
	return NoticeNoHistory, ErrNoHistory
}

// notify never fails the operation it reports on.
func (s *Service) notify(ctx context.Context, msg string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, msg); err != nil {
		slog.Warn("notify failed", "err", err)
	}
}
