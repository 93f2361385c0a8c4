package recall

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/recall/internal/clip"
	"go.klb.dev/recall/internal/config"
	"go.klb.dev/recall/internal/cycle"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/kv"
	"go.klb.dev/recall/internal/notify"
)

type fixture struct {
	svc     *Service
	backend *kv.Memory
	clip    *clip.Memory
	notes   *notify.Recorder
	now     time.Time
}

func newFixture(t *testing.T, entries ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		backend: kv.NewMemory(),
		clip:    clip.NewMemory(""),
		notes:   &notify.Recorder{},
		now:     time.UnixMilli(1_700_000_000_000),
	}
	h := history.New(f.backend)
	// Add oldest first so entries[0] ends up at the head.
	for i := len(entries) - 1; i >= 0; i-- {
		_, err := h.Add(ctx, entries[i])
		require.NoError(t, err)
	}

	f.svc = &Service{
		History:  h,
		Cycles:   cycle.NewStore(f.backend),
		Clip:     f.clip,
		Notifier: f.notes,
		Config:   config.Static{CycleLimit: 10, CycleTimeout: 2 * time.Second},
		Now:      func() time.Time { return f.now },
	}
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) state(t *testing.T) cycle.State {
	t.Helper()
	return f.svc.Cycles.Get(context.Background())
}

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("entry %d", i)
	}
	return out
}

func TestCycle_FirstPressRestoresNewest(t *testing.T) {
	f := newFixture(t, "newest", "older")

	msg, err := f.svc.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "[1/10] newest", msg)
	assert.Equal(t, []string{"newest"}, f.clip.Writes())
	assert.Equal(t, []string{"[1/10] newest"}, f.notes.Messages())
	assert.Equal(t, cycle.State{Position: 0, Timestamp: f.now.UnixMilli()}, f.state(t))
}

func TestCycle_ContinuesWithinTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, numbered(5)...)

	_, err := f.svc.Cycle(ctx)
	require.NoError(t, err)

	f.advance(2*time.Second - time.Millisecond)
	msg, err := f.svc.Cycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[2/10] entry 1", msg)
	assert.Equal(t, 1, f.state(t).Position)
}

func TestCycle_ResetsAfterTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, numbered(5)...)

	_, _ = f.svc.Cycle(ctx)
	f.advance(time.Second)
	_, _ = f.svc.Cycle(ctx)
	require.Equal(t, 1, f.state(t).Position)

	f.advance(2*time.Second + time.Millisecond)
	msg, err := f.svc.Cycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[1/10] entry 0", msg)
	assert.Equal(t, 0, f.state(t).Position)
}

func TestCycle_WrapsAtLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, numbered(12)...)
	require.NoError(t, f.svc.Cycles.Set(ctx, cycle.State{Position: 9, Timestamp: f.now.UnixMilli()}))

	f.advance(100 * time.Millisecond)
	msg, err := f.svc.Cycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[1/10] entry 0", msg)
	assert.Equal(t, 0, f.state(t).Position)
}

func TestCycle_FullSessionVisitsEachEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, numbered(10)...)

	for i := range 10 {
		msg, err := f.svc.Cycle(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("[%d/10] entry %d", i+1, i), msg)
		f.advance(500 * time.Millisecond)
	}
	assert.Equal(t, numbered(10), f.clip.Writes())
}

func TestCycle_InsufficientHistoryLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a", "b", "c")
	before := cycle.State{Position: 4, Timestamp: f.now.UnixMilli()}
	require.NoError(t, f.svc.Cycles.Set(ctx, before))

	f.advance(time.Millisecond)
	msg, err := f.svc.Cycle(ctx)
	require.ErrorIs(t, err, ErrNoHistory)
	assert.Equal(t, NoticeNoHistory, msg)

	assert.Equal(t, before, f.state(t), "state must be untouched")
	assert.Empty(t, f.clip.Writes())
	assert.Equal(t, []string{NoticeNoHistory}, f.notes.Messages())

	// A retry inside the same window makes the same decision again.
	f.advance(time.Millisecond)
	_, err = f.svc.Cycle(ctx)
	require.ErrorIs(t, err, ErrNoHistory)
	assert.Equal(t, before, f.state(t))
}

func TestCycle_EmptyHistory(t *testing.T) {
	f := newFixture(t)
	writes := f.backend.Writes

	msg, err := f.svc.Cycle(context.Background())
	require.ErrorIs(t, err, ErrNoHistory)
	assert.Equal(t, NoticeNoHistory, msg)
	assert.Equal(t, writes, f.backend.Writes, "nothing persisted")
	assert.Empty(t, f.clip.Writes())
}

func TestCycle_LongPreviewIsTruncated(t *testing.T) {
	long := strings.Repeat("z", 100)
	f := newFixture(t, long)

	msg, err := f.svc.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[1/10] "+strings.Repeat("z", 75)+"...", msg)
	assert.Equal(t, []string{long}, f.clip.Writes(), "clipboard gets the full text")
}

func TestCycle_UsesCurrentConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, numbered(5)...)
	f.svc.Config = config.Static{CycleLimit: 2, CycleTimeout: 50 * time.Millisecond}

	_, _ = f.svc.Cycle(ctx)
	f.advance(10 * time.Millisecond)
	msg, err := f.svc.Cycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[2/2] entry 1", msg)

	f.advance(10 * time.Millisecond)
	msg, err = f.svc.Cycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[1/2] entry 0", msg)

	f.advance(60 * time.Millisecond)
	_, _ = f.svc.Cycle(ctx)
	assert.Equal(t, 0, f.state(t).Position)
}

func TestCycle_ClipboardFailure(t *testing.T) {
	f := newFixture(t, "a")
	f.clip.WriteErr = clip.ErrUnavailable

	_, err := f.svc.Cycle(context.Background())
	require.ErrorIs(t, err, clip.ErrUnavailable)
	assert.Empty(t, f.notes.Messages())
}

func TestCycle_PersistFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a")
	f.svc.History.Load(ctx)
	boom := errors.New("disk full")
	f.backend.SetErr(boom)

	_, err := f.svc.Cycle(ctx)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, f.clip.Writes())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "first", "second", "third")

	msg, err := f.svc.Restore(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Restored #2", msg)
	assert.Equal(t, []string{"second"}, f.clip.Writes())
	assert.Equal(t, cycle.State{}, f.state(t), "restore does not touch cycle state")

	msg, err = f.svc.Restore(ctx, 4)
	require.ErrorIs(t, err, ErrNoHistory)
	assert.Equal(t, NoticeNoHistory, msg)

	_, err = f.svc.Restore(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidIndex)

	assert.Equal(t, []string{"Restored #2", NoticeNoHistory}, f.notes.Messages())
}

func TestRestoreText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a")

	msg, err := f.svc.RestoreText(ctx, "picked")
	require.NoError(t, err)
	assert.Equal(t, NoticeRestored, msg)
	assert.Equal(t, "picked", f.clip.Text())

	_, err = f.svc.RestoreText(ctx, "")
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestAddListClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	added, err := f.svc.Add(ctx, "x")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = f.svc.Add(ctx, "x")
	require.NoError(t, err)
	assert.False(t, added)

	require.Len(t, f.svc.List(ctx), 1)
	require.NoError(t, f.svc.Clear(ctx))
	assert.Empty(t, f.svc.List(ctx))
}

func TestNilNotifier(t *testing.T) {
	f := newFixture(t, "a")
	f.svc.Notifier = nil
	_, err := f.svc.Cycle(context.Background())
	assert.NoError(t, err)
}
