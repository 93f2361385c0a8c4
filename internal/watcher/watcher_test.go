package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/recall/internal/clip"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/kv"
)

type recordingSink struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (s *recordingSink) Add(_ context.Context, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return true, s.err
}

func (s *recordingSink) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// slowClip blocks every read until release is closed.
type slowClip struct {
	clip.Memory
	release chan struct{}
	mu      sync.Mutex
	inRead  int
	maxRead int
}

func (c *slowClip) ReadText(ctx context.Context) (string, error) {
	c.mu.Lock()
	c.inRead++
	if c.inRead > c.maxRead {
		c.maxRead = c.inRead
	}
	c.mu.Unlock()

	<-c.release

	c.mu.Lock()
	c.inRead--
	c.mu.Unlock()
	return c.Memory.ReadText(ctx)
}

func TestTick_CapturesIntoHistory(t *testing.T) {
	ctx := context.Background()
	cb := clip.NewMemory("hello")
	h := history.New(kv.NewMemory())
	w := New(cb, h)

	w.Tick(ctx)
	entries := h.List(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Text)

	// Unchanged clipboard on the next tick: no new entry.
	w.Tick(ctx)
	assert.Len(t, h.List(ctx), 1)
	assert.Equal(t, "hello", w.Last())
}

func TestTick_IgnoresEmptyAndUnchanged(t *testing.T) {
	ctx := context.Background()
	cb := clip.NewMemory("")
	sink := &recordingSink{}
	w := New(cb, sink)

	w.Tick(ctx)
	cb.Set("a")
	w.Tick(ctx)
	w.Tick(ctx)
	cb.Set("")
	w.Tick(ctx)
	cb.Set("b")
	w.Tick(ctx)
	cb.Set("a")
	w.Tick(ctx)

	assert.Equal(t, []string{"a", "b", "a"}, sink.got())
}

func TestTick_ReadErrorIsSkipped(t *testing.T) {
	ctx := context.Background()
	cb := clip.NewMemory("x")
	cb.ReadErr = errors.New("display gone")
	sink := &recordingSink{}
	w := New(cb, sink)

	w.Tick(ctx)
	assert.Empty(t, sink.got())
	assert.Empty(t, w.Last())
}

func TestTick_SinkErrorStillAdvancesLast(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{err: errors.New("disk full")}
	w := New(clip.NewMemory("x"), sink)

	w.Tick(ctx)
	w.Tick(ctx)
	assert.Equal(t, []string{"x"}, sink.got())
}

func TestStartStop_Idempotent(t *testing.T) {
	w := New(clip.NewMemory(""), &recordingSink{})

	assert.False(t, w.Running())
	w.Stop()

	require.True(t, w.Start(context.Background(), 5*time.Millisecond))
	assert.False(t, w.Start(context.Background(), time.Hour), "second start is a no-op")
	assert.True(t, w.Running())
	assert.Equal(t, 5*time.Millisecond, w.Interval())

	w.Stop()
	w.Stop()
	assert.False(t, w.Running())
	assert.Zero(t, w.Interval())

	require.True(t, w.Start(context.Background(), 0), "restart after stop")
	assert.Equal(t, DefaultInterval, w.Interval())
	w.Stop()
}

func TestStart_PollsUntilStopped(t *testing.T) {
	cb := clip.NewMemory("first")
	sink := &recordingSink{}
	w := New(cb, sink)

	require.True(t, w.Start(context.Background(), 5*time.Millisecond))
	require.Eventually(t, func() bool { return len(sink.got()) == 1 }, time.Second, 5*time.Millisecond)

	cb.Set("second")
	require.Eventually(t, func() bool { return len(sink.got()) == 2 }, time.Second, 5*time.Millisecond)

	w.Stop()
	reads := cb.Reads()
	time.Sleep(30 * time.Millisecond)
	// At most one tick that was already in flight may still land.
	assert.LessOrEqual(t, cb.Reads(), reads+1)
	assert.Equal(t, []string{"first", "second"}, sink.got())
}

func TestStart_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := New(clip.NewMemory("x"), &recordingSink{})
	require.True(t, w.Start(ctx, 5*time.Millisecond))

	cancel()
	w.Stop()
	assert.False(t, w.Running())
}

func TestStart_RestartsAfterContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := clip.NewMemory("")
	sink := &recordingSink{}
	w := New(cb, sink)
	require.True(t, w.Start(ctx, 5*time.Millisecond))

	cancel()
	require.Eventually(t, func() bool { return !w.Running() }, time.Second, 5*time.Millisecond)
	assert.Zero(t, w.Interval())

	require.True(t, w.Start(context.Background(), 5*time.Millisecond), "start after the schedule ended")
	t.Cleanup(w.Stop)
	cb.Set("after restart")
	require.Eventually(t, func() bool { return len(sink.got()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"after restart"}, sink.got())
}

func TestStart_SkipsOverlappingTicks(t *testing.T) {
	cb := &slowClip{release: make(chan struct{})}
	cb.Set("slow")
	sink := &recordingSink{}
	w := New(cb, sink)

	require.True(t, w.Start(context.Background(), 2*time.Millisecond))
	// Let many ticks fire while the first read is blocked.
	time.Sleep(40 * time.Millisecond)
	close(cb.release)
	require.Eventually(t, func() bool { return len(sink.got()) == 1 }, time.Second, 5*time.Millisecond)
	w.Stop()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	assert.Equal(t, 1, cb.maxRead, "reads must never overlap")
	assert.Equal(t, []string{"slow"}, sink.got())
}
