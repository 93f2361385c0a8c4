package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/soheilhy/cmux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"go.klb.dev/recall/internal/clip"
	"go.klb.dev/recall/internal/config"
	"go.klb.dev/recall/internal/cycle"
	"go.klb.dev/recall/internal/grpcservice"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/ipc"
	"go.klb.dev/recall/internal/kv"
	"go.klb.dev/recall/internal/notify"
	"go.klb.dev/recall/internal/recall"
	"go.klb.dev/recall/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Capture the clipboard into history (daemon)",
		Long: `Polls the system clipboard and records every new text value in the
history. While it runs, the other recall commands are served by this process
over a local socket, so entries they copy back stay on the clipboard after the
command exits.

The socket also answers plain HTTP:
  GET /v1/status, /v1/history, /v1/history/{index}, /healthz

max-items, cycle-limit and cycle-timeout are re-read from the config file when
it changes. poll-interval applies from the next start.

Precedence (lowest → highest): defaults → config file → RECALL_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runWatch(v) },
	}

	f := cmd.Flags()
	f.Bool("no-capture", false, "serve the history without polling the clipboard")
	f.Bool("no-background", false, "run interactively: tinter logs + debug level")
	addTunableFlags(cmd)
	// The daemon has no terminal to show notices on.
	addNotifyFlag(cmd, "log")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runWatch(v *viper.Viper) error {
	setupLogging(v, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	note, err := notify.New(v.GetString("notify"))
	if err != nil {
		return err
	}

	// Claim the socket first: a second daemon must not start capturing.
	ln, err := ipc.Listen()
	if err != nil {
		if errors.Is(err, ipc.ErrInUse) {
			return err
		}
		return fmt.Errorf("ipc listen: %w", err)
	}
	slog.Info("IPC socket listening", "path", ipc.SocketPath())

	cfg := config.Viper{V: v}
	store := kv.NewFileStore(v.GetString("store"))
	hist := history.New(store, history.WithMaxItems(func() int { return cfg.Current().MaxItems }))
	hist.Load(ctx)

	cb := clip.New()
	app := &recall.Service{
		History:  hist,
		Cycles:   cycle.NewStore(store),
		Clip:     cb,
		Notifier: note,
		Config:   cfg,
	}

	slog.Info("recall watch starting",
		"version", Version,
		"store", store.Path(),
		"clipboard", cb.Name(),
		"entries", hist.Len(ctx),
	)

	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			slog.Info("config reloaded", "file", e.Name, "config", fmt.Sprintf("%+v", cfg.Current()))
		})
		v.WatchConfig()
	}

	go func() {
		if err := store.Watch(ctx, func() { hist.Load(ctx) }); err != nil {
			slog.Warn("store watch unavailable", "err", err)
		}
	}()

	var w *watcher.Watcher
	if !v.GetBool("no-capture") {
		w = watcher.New(cb, hist)
		w.Tick(ctx)
		w.Start(ctx, cfg.Current().PollInterval)
		defer w.Stop()
	}

	return serveIPC(ctx, ln, grpcservice.New(app, w, Version))
}

// serveIPC serves gRPC and the HTTP view on one listener until ctx ends.
func serveIPC(ctx context.Context, ln net.Listener, svc *grpcservice.Service) error {
	gw, err := grpcservice.NewGateway(svc)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("gateway: %w", err)
	}

	m := cmux.New(ln)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.HTTP1Fast())

	gs := grpc.NewServer()
	grpcservice.Register(gs, svc)

	errc := make(chan error, 3)
	go func() { errc <- gs.Serve(grpcL) }()
	go func() { errc <- serveHTTPGateway(httpL, gw) }()
	go func() { errc <- m.Serve() }()

	select {
	case <-ctx.Done():
		slog.Info("recall watch shutting down")
		err = nil
	case err = <-errc:
		slog.Error("ipc server stopped", "err", err)
	}
	gs.Stop()
	_ = ln.Close()
	return err
}
