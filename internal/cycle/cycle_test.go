package cycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/recall/internal/kv"
)

func TestAdvance(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)
	const timeout = 2 * time.Second

	tests := []struct {
		name      string
		prev      State
		now       time.Time
		limit     int
		wantPos   int
		wantPhase Phase
	}{
		{
			name:      "within timeout advances",
			prev:      State{Position: 0, Timestamp: t0.UnixMilli()},
			now:       t0.Add(timeout - time.Millisecond),
			limit:     10,
			wantPos:   1,
			wantPhase: Continuing,
		},
		{
			name:      "after timeout resets",
			prev:      State{Position: 0, Timestamp: t0.UnixMilli()},
			now:       t0.Add(timeout + time.Millisecond),
			limit:     10,
			wantPos:   0,
			wantPhase: Fresh,
		},
		{
			name:      "exactly at timeout resets",
			prev:      State{Position: 4, Timestamp: t0.UnixMilli()},
			now:       t0.Add(timeout),
			limit:     10,
			wantPos:   0,
			wantPhase: Fresh,
		},
		{
			name:      "wraps at limit",
			prev:      State{Position: 9, Timestamp: t0.UnixMilli()},
			now:       t0.Add(100 * time.Millisecond),
			limit:     10,
			wantPos:   0,
			wantPhase: Continuing,
		},
		{
			name:      "never cycled",
			prev:      State{},
			now:       t0,
			limit:     10,
			wantPos:   0,
			wantPhase: Fresh,
		},
		{
			name:      "position beyond a lowered limit",
			prev:      State{Position: 7, Timestamp: t0.UnixMilli()},
			now:       t0.Add(time.Millisecond),
			limit:     3,
			wantPos:   2,
			wantPhase: Continuing,
		},
		{
			name:      "negative position restarts",
			prev:      State{Position: -4, Timestamp: t0.UnixMilli()},
			now:       t0.Add(time.Millisecond),
			limit:     10,
			wantPos:   0,
			wantPhase: Fresh,
		},
		{
			name:      "non-positive limit uses default",
			prev:      State{Position: DefaultLimit - 1, Timestamp: t0.UnixMilli()},
			now:       t0.Add(time.Millisecond),
			limit:     0,
			wantPos:   0,
			wantPhase: Continuing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, phase := Advance(tt.prev, tt.now, tt.limit, timeout)
			assert.Equal(t, tt.wantPos, next.Position)
			assert.Equal(t, tt.wantPhase, phase)
			assert.Equal(t, tt.now.UnixMilli(), next.Timestamp)
		})
	}
}

func TestAdvance_PositionStaysBelowLimit(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	st := State{}
	for i := range 35 {
		now = now.Add(10 * time.Millisecond)
		st, _ = Advance(st, now, 4, time.Second)
		require.GreaterOrEqual(t, st.Position, 0)
		require.Less(t, st.Position, 4, "step %d", i)
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "fresh", Fresh.String())
	assert.Equal(t, "continuing", Continuing.String())
	assert.Equal(t, "Phase(7)", Phase(7).String())
}

func TestPreview(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, Preview(short))

	exact := strings.Repeat("x", PreviewRunes)
	assert.Equal(t, exact, Preview(exact))

	long := strings.Repeat("y", PreviewRunes+1)
	assert.Equal(t, strings.Repeat("y", PreviewRunes)+"...", Preview(long))

	// Runes, not bytes: multi-byte text is cut on a character boundary.
	wide := strings.Repeat("é", PreviewRunes+10)
	assert.Equal(t, strings.Repeat("é", PreviewRunes)+"...", Preview(wide))
}

func TestStore_DefaultWhenAbsent(t *testing.T) {
	s := NewStore(kv.NewMemory())
	assert.Equal(t, State{}, s.Get(context.Background()))
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := NewStore(backend)

	want := State{Position: 3, Timestamp: 1_700_000_000_500}
	require.NoError(t, s.Set(ctx, want))
	assert.Equal(t, want, NewStore(backend).Get(ctx))

	raw, _, err := backend.Get(ctx, Key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"position":3,"timestamp":1700000000500}`, raw)
}

func TestStore_CorruptIsDefault(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	require.NoError(t, backend.Set(ctx, Key, "[1,2"))
	assert.Equal(t, State{}, NewStore(backend).Get(ctx))
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	boom := errors.New("locked")
	backend.SetErr(boom)

	s := NewStore(backend)
	assert.Equal(t, State{}, s.Get(ctx))
	assert.ErrorIs(t, s.Set(ctx, State{Position: 1}), boom)
}
