package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newAddCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record stdin in the history",
		Long: `Reads stdin and records it as the newest history entry, as if it had
been copied. Text equal to the newest entry, or only whitespace, is ignored.
The clipboard itself is not changed.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runAdd(v, cmd.InOrStdin()) },
	}
	addClientFlags(cmd)
	return cmd
}

func runAdd(v *viper.Viper, in io.Reader) error {
	setupLogging(v, false)

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	s, err := open(v)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := rpcContext()
	defer cancel()

	var added bool
	if s.daemon() {
		added, err = s.client.Add(ctx, string(data))
	} else {
		added, err = s.local.Add(ctx, string(data))
	}
	if err != nil {
		return s.fail(ctx, "add to history", err, !s.daemon())
	}
	slog.Debug("add", "added", added, "len", len(data))
	return nil
}
