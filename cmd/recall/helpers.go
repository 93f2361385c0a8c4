package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/clip"
	"go.klb.dev/recall/internal/config"
	"go.klb.dev/recall/internal/cycle"
	"go.klb.dev/recall/internal/grpcservice"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/ipc"
	"go.klb.dev/recall/internal/kv"
	"go.klb.dev/recall/internal/notify"
	"go.klb.dev/recall/internal/recall"
)

// rpcTimeout bounds every daemon call made by a one-shot command.
const rpcTimeout = 5 * time.Second

// session is what a one-shot command works with: the daemon when one is
// running, otherwise a recall.Service over the store file.
type session struct {
	note   notify.Notifier
	client *grpcservice.Client
	close  func()
	local  *recall.Service
}

// open picks the daemon when it is reachable and --no-daemon is not set. The
// daemon owns the system clipboard selection on X11, so a clipboard written
// through it survives this process exiting.
func open(v *viper.Viper) (*session, error) {
	note, err := notify.New(v.GetString("notify"))
	if err != nil {
		return nil, err
	}
	s := &session{note: note, close: func() {}}

	if !v.GetBool("no-daemon") && ipc.IsRunning() {
		conn, err := grpcservice.DialIPC()
		if err == nil {
			slog.Debug("using daemon; its own settings apply",
				"socket", ipc.SocketPath(),
				"ignored", ignoredTunables(v))
			s.client = grpcservice.NewClient(conn)
			s.close = func() { _ = conn.Close() }
			return s, nil
		}
		slog.Debug("daemon dial failed, working on the store directly", "err", err)
	}

	s.local = newLocalService(v, clip.New(), note)
	return s, nil
}

// ignoredTunables lists the daemon-owned settings given explicitly to this
// command.
func ignoredTunables(v *viper.Viper) []string {
	var out []string
	for _, name := range daemonTunables {
		if v.IsSet(name) {
			out = append(out, name)
		}
	}
	return out
}

// newLocalService builds a recall.Service over the store file named by v.
func newLocalService(v *viper.Viper, c clip.Accessor, note notify.Notifier) *recall.Service {
	cfg := config.Viper{V: v}
	store := kv.NewFileStore(v.GetString("store"))
	return &recall.Service{
		History:  history.New(store, history.WithMaxItems(func() int { return cfg.Current().MaxItems })),
		Cycles:   cycle.NewStore(store),
		Clip:     c,
		Notifier: note,
		Config:   cfg,
	}
}

// daemon reports whether calls go over IPC.
func (s *session) daemon() bool { return s.client != nil }

// rpcContext returns a context for a single daemon call.
func rpcContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rpcTimeout)
}

// notice runs a notice-producing operation either in the daemon or locally
// and shows its outcome. The local service notifies on its own; daemon
// results are shown here.
func (s *session) notice(action string, remote func(context.Context, *grpcservice.Client) (string, error), local func(context.Context, *recall.Service) (string, error)) error {
	ctx, cancel := rpcContext()
	defer cancel()

	if !s.daemon() {
		_, err := local(ctx, s.local)
		return s.fail(ctx, action, err, true)
	}

	msg, err := remote(ctx, s.client)
	if err != nil {
		return s.fail(ctx, action, err, false)
	}
	s.show(ctx, msg)
	return nil
}

// fail turns err into the user-facing outcome of a command. "No history" has
// already been shown when the local service produced it.
func (s *session) fail(ctx context.Context, action string, err error, local bool) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, recall.ErrNoHistory):
		if !local {
			s.show(ctx, recall.NoticeNoHistory)
		}
		return errReported
	case errors.Is(err, recall.ErrInvalidIndex):
		return err
	}
	slog.Debug(action+" failed", "err", err)
	s.show(ctx, fmt.Sprintf("Could not %s", action))
	return errReported
}

func (s *session) show(ctx context.Context, msg string) {
	if err := s.note.Notify(ctx, msg); err != nil {
		slog.Warn("notify failed", "err", err)
	}
}

// list returns the history from whichever side the session uses.
func (s *session) list(ctx context.Context) ([]history.Entry, error) {
	if s.daemon() {
		return s.client.List(ctx)
	}
	return s.local.List(ctx), nil
}
