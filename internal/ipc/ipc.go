// Package ipc provides helpers for the local Unix-socket channel between
// recall CLI commands and a running `recall watch` daemon.
//
// The daemon serves gRPC and a small HTTP/JSON view on the same socket. CLI
// commands probe for it and fall back to working on the store file directly
// when it is absent.
package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

const socketName = "recall.sock"

// SocketPath returns the path of the IPC socket:
//
//   - $RECALL_SOCKET when set
//   - $XDG_RUNTIME_DIR/recall.sock on Linux desktops
//   - $TMPDIR/recall.sock otherwise (macOS, Windows 10+ AF_UNIX)
func SocketPath() string {
	if s := os.Getenv("RECALL_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, socketName)
	}
	return filepath.Join(os.TempDir(), socketName)
}

// Target returns the gRPC dial target for the socket.
func Target() string { return "unix://" + SocketPath() }

// IsRunning reports whether a daemon appears to be listening on the socket.
// It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := net.DialTimeout("unix", SocketPath(), 500*time.Millisecond)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// ErrInUse is returned by Listen when another daemon owns the socket.
var ErrInUse = errors.New("ipc socket in use by a running daemon")

// Listen creates the socket listener. A stale socket file left by a crashed
// daemon is removed first; a live one is reported as ErrInUse.
func Listen() (net.Listener, error) {
	path := SocketPath()
	if IsRunning() {
		return nil, fmt.Errorf("%w: %s", ErrInUse, path)
	}
	_ = os.Remove(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, err
	}
	return ln, nil
}
