// Package watcher samples the system clipboard on a fixed interval and feeds
// new text into the history.
//
// Each tick runs on its own goroutine so a slow clipboard read never delays
// the schedule. Ticks are single-flighted: while one sample is still in
// progress, further ticks are skipped rather than queued, so two reads never
// race on the last-observed value.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/recall/internal/clip"
)

// DefaultInterval is the poll period used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Sink receives clipboard text that differs from the previous sample.
// *history.Store satisfies it.
type Sink interface {
	Add(ctx context.Context, text string) (bool, error)
}

// Watcher polls a clip.Accessor. The zero value is not usable; call New.
type Watcher struct {
	clip clip.Accessor
	sink Sink

	mu       sync.Mutex
	stop     context.CancelFunc
	done     chan struct{}
	interval time.Duration

	busy atomic.Bool

	lastMu sync.Mutex
	last   string
}

// New returns a stopped Watcher.
func New(c clip.Accessor, sink Sink) *Watcher {
	return &Watcher{clip: c, sink: sink}
}

// Start begins polling every interval (DefaultInterval when not positive). It
// is a no-op returning false if the watcher is already running. The interval
// is fixed until Stop; restart the watcher to change it.
//
// Ticks use ctx for their clipboard and history I/O; cancelling ctx stops the
// watcher as well.
func (w *Watcher) Start(ctx context.Context, interval time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return false
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.stop = cancel
	w.done = make(chan struct{})
	w.interval = interval

	go w.loop(ctx, loopCtx, interval, w.done)

	slog.Info("clipboard watcher started", "backend", w.clip.Name(), "interval", interval)
	return true
}

// Stop cancels future ticks and waits for the schedule to wind down. A tick
// already in progress is allowed to finish on its own. Stop is idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.stop, w.done
	w.stop, w.done = nil, nil
	w.interval = 0
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Info("clipboard watcher stopped")
}

// release clears the running state when the loop ends on its own (ctx
// cancelled), so a later Start schedules again. A Stop or restart that got
// there first owns the state and is left alone.
func (w *Watcher) release(done chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != done {
		return
	}
	w.stop()
	w.stop, w.done = nil, nil
	w.interval = 0
	slog.Info("clipboard watcher stopped", "reason", "context done")
}

// Running reports whether the watcher is scheduled.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stop != nil
}

// Interval returns the poll period of the running watcher, or 0.
func (w *Watcher) Interval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// Last returns the most recently observed clipboard text.
func (w *Watcher) Last() string {
	w.lastMu.Lock()
	defer w.lastMu.Unlock()
	return w.last
}

func (w *Watcher) loop(tickCtx, loopCtx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	defer w.release(done)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-loopCtx.Done():
			return
		case <-t.C:
			if !w.busy.CompareAndSwap(false, true) {
				slog.Debug("clipboard watcher: previous tick still running, skipping")
				continue
			}
			go func() {
				defer w.busy.Store(false)
				w.Tick(tickCtx)
			}()
		}
	}
}

// Tick takes one clipboard sample. Text that is non-empty and differs from
// the last observed value becomes the new last value and is handed to the
// sink. Failures are logged; they never stop the schedule.
func (w *Watcher) Tick(ctx context.Context) {
	text, err := w.clip.ReadText(ctx)
	if err != nil {
		slog.Warn("clipboard read failed", "err", err)
		return
	}
	if text == "" {
		return
	}

	w.lastMu.Lock()
	if text == w.last {
		w.lastMu.Unlock()
		return
	}
	w.last = text
	w.lastMu.Unlock()

	if _, err := w.sink.Add(ctx, text); err != nil {
		slog.Error("history update failed", "err", err)
	}
}
