package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_WritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	n := NewTerminal(&buf)

	require.NoError(t, n.Notify(context.Background(), "[1/10] first line\nsecond\tline"))
	// A bytes.Buffer is not a terminal, so no escape codes are emitted.
	assert.Equal(t, "[1/10] first line second line\n", buf.String())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	assert.Empty(t, r.Last())

	ctx := context.Background()
	require.NoError(t, r.Notify(ctx, "No history"))
	require.NoError(t, r.Notify(ctx, "Restored #2"))

	assert.Equal(t, []string{"No history", "Restored #2"}, r.Messages())
	assert.Equal(t, "Restored #2", r.Last())
}

func TestNew(t *testing.T) {
	for _, kind := range []string{"", "terminal", "TTY"} {
		n, err := New(kind)
		require.NoError(t, err)
		assert.IsType(t, &Terminal{}, n)
	}

	n, err := New("log")
	require.NoError(t, err)
	assert.IsType(t, Log{}, n)

	n, err = New("none")
	require.NoError(t, err)
	assert.IsType(t, Discard{}, n)

	_, err = New("desktop")
	assert.Error(t, err)
}
