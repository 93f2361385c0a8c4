package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"go.klb.dev/recall/internal/cycle"
	"go.klb.dev/recall/internal/grpcservice"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/recall"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the history, newest first",
		Long: `Prints every history entry with its position, capture age and a preview.
Positions are the N accepted by "recall restore N"; --restore N restores one
directly from the listing.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runList(v, cmd.OutOrStdout()) },
	}
	f := cmd.Flags()
	f.String("format", "text", "output format: text|json|yaml")
	f.Int("restore", 0, "copy entry N of the listing to the clipboard")
	addClientFlags(cmd)
	return cmd
}

// listRow is one entry as printed by list --format json|yaml.
type listRow struct {
	Position  int       `json:"position" yaml:"position"`
	Text      string    `json:"text" yaml:"text"`
	Timestamp int64     `json:"timestamp" yaml:"timestamp"`
	Captured  time.Time `json:"captured" yaml:"captured"`
}

func runList(v *viper.Viper, out io.Writer) error {
	setupLogging(v, false)

	format := strings.ToLower(v.GetString("format"))
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text|json|yaml)", format)
	}

	s, err := open(v)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := rpcContext()
	defer cancel()

	entries, err := s.list(ctx)
	if err != nil {
		return s.fail(ctx, "list history", err, false)
	}

	if n := v.GetInt("restore"); n != 0 {
		return restoreFromList(s, entries, n)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows(entries))
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(rows(entries)); err != nil {
			return err
		}
		return enc.Close()
	}
	return printList(out, entries, time.Now())
}

func rows(entries []history.Entry) []listRow {
	out := make([]listRow, len(entries))
	for i, e := range entries {
		out[i] = listRow{Position: i + 1, Text: e.Text, Timestamp: e.Timestamp, Captured: e.Time().UTC()}
	}
	return out
}

func printList(out io.Writer, entries []history.Entry, now time.Time) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No history.")
		return err
	}
	tw := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "#\tCAPTURED\tTEXT\n")
	for i, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, fmtAge(e.Time(), now), oneLine(cycle.Preview(e.Text)))
	}
	return tw.Flush()
}

// restoreFromList copies the text of row n of the listing just fetched. Both
// the daemon and the local path restore that text, not whatever sits at
// position n by the time the call lands.
func restoreFromList(s *session, entries []history.Entry, n int) error {
	if n < 1 {
		return fmt.Errorf("--restore: positions start at 1, got %d", n)
	}
	var text string
	if n <= len(entries) {
		text = entries[n-1].Text
	}
	return s.notice("restore entry",
		func(ctx context.Context, c *grpcservice.Client) (string, error) { return c.RestoreText(ctx, text) },
		func(ctx context.Context, app *recall.Service) (string, error) { return app.RestoreText(ctx, text) },
	)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func fmtAge(t, now time.Time) string {
	age := now.Sub(t).Round(time.Second)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return t.Local().Format("15:04:05")
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}
