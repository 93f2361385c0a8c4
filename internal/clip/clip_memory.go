package clip

import (
	"context"
	"sync"
)

// Memory is an in-process clipboard. The zero value is an empty clipboard.
type Memory struct {
	mu     sync.Mutex
	text   string
	reads  int
	writes []string

	ReadErr  error
	WriteErr error
}

// NewMemory returns a Memory holding text.
func NewMemory(text string) *Memory { return &Memory{text: text} }

// Name implements Accessor.
func (m *Memory) Name() string { return "memory" }

// ReadText implements Accessor.
func (m *Memory) ReadText(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	return m.text, nil
}

// WriteText implements Accessor.
func (m *Memory) WriteText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.text = text
	m.writes = append(m.writes, text)
	return nil
}

// Set replaces the clipboard text without recording a write, as if another
// application had copied it.
func (m *Memory) Set(text string) {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
}

// Text returns the current clipboard text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes returns every text passed to WriteText, in order.
func (m *Memory) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

// Reads returns how many times ReadText was called.
func (m *Memory) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}
