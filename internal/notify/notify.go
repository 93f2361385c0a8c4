// Package notify delivers the short status notices recall commands end with
// ("[2/10] some text", "No history", ...).
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Notifier displays a one-line message to the user.
type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

// New returns the notifier for kind: "terminal" (default), "log" or "none".
func New(kind string) (Notifier, error) {
	switch strings.ToLower(kind) {
	case "", "terminal", "tty":
		return NewTerminal(os.Stderr), nil
	case "log":
		return Log{}, nil
	case "none", "off":
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown notifier %q (want terminal|log|none)", kind)
	}
}

// Terminal writes styled notices to a stream, one per line.
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	style lipgloss.Style
}

// NewTerminal returns a Terminal writing to w. Colour is applied only when w
// is a terminal that supports it.
func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w:     w,
		style: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	}
}

// Notify implements Notifier.
func (t *Terminal) Notify(_ context.Context, msg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.w, t.style.Render(singleLine(msg)))
	return err
}

// Log sends notices to the default slog logger. The watch daemon uses it so
// that notices produced on behalf of IPC clients end up in its log.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(ctx context.Context, msg string) error {
	slog.InfoContext(ctx, "notice", "msg", msg)
	return nil
}

// Discard drops every notice.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(context.Context, string) error { return nil }

// Recorder keeps notices in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []string
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, msg string) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	return nil
}

// Messages returns every recorded notice in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// Last returns the most recent notice, or "".
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return ""
	}
	return r.msgs[len(r.msgs)-1]
}

// singleLine collapses line breaks so a multi-line clipboard preview stays on
// one terminal line.
func singleLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\r", " ")), " ")
}
