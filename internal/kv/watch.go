package kv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange whenever another process rewrites the store file.
// Writes made through s itself do not trigger onChange. It blocks until ctx is
// cancelled.
//
// The parent directory is watched rather than the file, because every write
// replaces the file via rename and a watch on the old inode would go quiet.
func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("kv: watch: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("kv: watch: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("kv: watch %s: %w", dir, err)
	}
	slog.Debug("kv: watching store", "path", s.path)

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if !s.changed() {
				continue
			}
			slog.Debug("kv: store changed externally", "path", s.path, "op", ev.Op.String())
			onChange()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("kv: watcher error", "err", err)
		}
	}
}
