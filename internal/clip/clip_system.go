//go:build darwin || linux || windows

package clip

import (
	"context"
	"log/slog"

	"golang.design/x/clipboard"
)

type systemAccessor struct{}

// New returns the system clipboard accessor, or a headless accessor if the
// display environment is unavailable (e.g. a server without X11 or Wayland,
// or a binary built without cgo). clipboard.Init is called here rather than in
// init() so that sub-commands which never touch the clipboard don't log the
// warning.
func New() Accessor {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return Headless()
	}
	return systemAccessor{}
}

func (systemAccessor) Name() string { return "system clipboard" }

func (systemAccessor) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (systemAccessor) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// The returned channel fires when another owner takes the selection; the
	// write itself is complete once Write returns.
	_ = clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
