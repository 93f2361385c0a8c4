package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/grpcservice"
	"go.klb.dev/recall/internal/ipc"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the watch daemon is running and what it holds",
		Long: `Queries a running "recall watch" daemon over the IPC socket. Without a
daemon the store file is read directly.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runStatus(v, cmd.OutOrStdout()) },
	}
	cmd.Flags().Bool("json", false, "output raw JSON")
	addClientFlags(cmd)
	return cmd
}

// statusView is what status prints, from the daemon or from the store.
type statusView struct {
	Daemon       bool      `json:"daemon"`
	Transport    string    `json:"transport"`
	Version      string    `json:"version,omitempty"`
	Clipboard    string    `json:"clipboard,omitempty"`
	Watching     bool      `json:"watching"`
	PollInterval string    `json:"poll_interval,omitempty"`
	StartedAt    time.Time `json:"started_at,omitzero"`
	Entries      int       `json:"entries"`
	LastCapture  time.Time `json:"last_capture,omitzero"`
	Store        string    `json:"store,omitempty"`
}

func runStatus(v *viper.Viper, out io.Writer) error {
	setupLogging(v, false)

	s, err := open(v)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := rpcContext()
	defer cancel()

	var view statusView
	if s.daemon() {
		st, err := s.client.Status(ctx)
		if err != nil {
			return s.fail(ctx, "reach the daemon", err, false)
		}
		view = daemonView(st)
	} else {
		entries := s.local.List(ctx)
		view = statusView{
			Transport: "local (no daemon)",
			Entries:   len(entries),
			Store:     v.GetString("store"),
		}
		if len(entries) > 0 {
			view.LastCapture = entries[0].Time()
		}
	}

	if v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return printStatus(out, view, time.Now())
}

func daemonView(st grpcservice.StatusInfo) statusView {
	view := statusView{
		Daemon:      true,
		Transport:   fmt.Sprintf("ipc (%s)", ipc.SocketPath()),
		Version:     st.Version,
		Clipboard:   st.Backend,
		Watching:    st.Watching,
		StartedAt:   st.StartedAt,
		Entries:     st.Entries,
		LastCapture: st.LastCapture,
	}
	if st.PollInterval > 0 {
		view.PollInterval = st.PollInterval.String()
	}
	return view
}

func printStatus(out io.Writer, view statusView, now time.Time) error {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Transport:\t%s\n", view.Transport)
	if view.Daemon {
		fmt.Fprintf(w, "Daemon:\t%s\n", view.Version)
		fmt.Fprintf(w, "Started:\t%s (%s)\n", view.StartedAt.UTC().Format(time.RFC3339), fmtAge(view.StartedAt, now))
		fmt.Fprintf(w, "Clipboard:\t%s\n", view.Clipboard)
		if view.Watching {
			fmt.Fprintf(w, "Watching:\tevery %s\n", view.PollInterval)
		} else {
			fmt.Fprintf(w, "Watching:\tno\n")
		}
	} else {
		fmt.Fprintf(w, "Daemon:\tnot running\n")
		fmt.Fprintf(w, "Store:\t%s\n", view.Store)
	}
	fmt.Fprintf(w, "Entries:\t%d\n", view.Entries)
	if !view.LastCapture.IsZero() {
		fmt.Fprintf(w, "Last capture:\t%s\n", fmtAge(view.LastCapture, now))
	}
	return w.Flush()
}
