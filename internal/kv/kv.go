// Package kv is the durable string key/value store that recall keeps its
// history and cycle state in.
//
// Values are opaque strings; callers serialise their own state (JSON) into a
// single key. The store offers last-write-wins semantics per key and no
// cross-process locking.
package kv

import (
	"context"
	"os"
	"path/filepath"
)

// Store is a string-keyed persistence service.
type Store interface {
	// Get returns the value for key. ok is false when the key has never been
	// set. err is only non-nil for I/O failures.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set replaces the value for key and flushes it to durable storage
	// before returning.
	Set(ctx context.Context, key, value string) error
}

// DefaultPath returns the platform location of the store file:
// $XDG_STATE_HOME/recall/store.json, falling back to
// $HOME/.local/state/recall/store.json.
func DefaultPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "recall", "store.json")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "recall", "store.json")
	}
	return filepath.Join(os.TempDir(), "recall", "store.json")
}
