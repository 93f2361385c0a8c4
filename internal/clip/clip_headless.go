package clip

import "context"

// headlessAccessor is used when no display server is reachable. Reads see an
// empty clipboard so the watcher idles; writes fail so foreground commands can
// tell the user nothing was restored.
type headlessAccessor struct{}

// Headless returns an accessor with no backing clipboard.
func Headless() Accessor { return headlessAccessor{} }

func (headlessAccessor) Name() string                             { return "headless (no-op)" }
func (headlessAccessor) ReadText(context.Context) (string, error) { return "", nil }
func (headlessAccessor) WriteText(context.Context, string) error  { return ErrUnavailable }
