package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/grpcservice"
	"go.klb.dev/recall/internal/recall"
)

func newCycleCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Copy the next older history entry to the clipboard",
		Long: `Each press within cycle-timeout of the previous one moves one entry
further back, wrapping after cycle-limit entries. A press after a longer pause
starts again at the newest entry. The notice shows the position and a preview:

  [2/10] text of the entry...

Bind this command to a hotkey.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runCycle(v) },
	}
	addClientFlags(cmd)
	return cmd
}

func runCycle(v *viper.Viper) error {
	setupLogging(v, false)

	s, err := open(v)
	if err != nil {
		return err
	}
	defer s.close()

	return s.notice("cycle history",
		func(ctx context.Context, c *grpcservice.Client) (string, error) { return c.Cycle(ctx) },
		func(ctx context.Context, app *recall.Service) (string, error) { return app.Cycle(ctx) },
	)
}
