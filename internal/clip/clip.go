// Package clip provides text access to the system clipboard.
//
//	clip_system.go    darwin/linux/windows via golang.design/x/clipboard
//	clip_other.go     every other GOOS gets the headless accessor
//	clip_headless.go  no display server (headless Linux, containers, CI)
//	clip_memory.go    in-process clipboard for tests
package clip

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by accessors that cannot reach a clipboard.
var ErrUnavailable = errors.New("clipboard unavailable")

// Accessor reads and writes plain text on a clipboard.
type Accessor interface {
	// Name returns a human-readable name for the accessor.
	Name() string

	// ReadText returns the current clipboard text. An empty string means the
	// clipboard is empty or holds no text representation.
	ReadText(ctx context.Context) (string, error)

	// WriteText replaces the clipboard contents with text.
	WriteText(ctx context.Context, text string) error
}
