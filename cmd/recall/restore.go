package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/grpcservice"
	"go.klb.dev/recall/internal/recall"
)

// defaultRestore is the position restored when none is given: the entry
// before the current clipboard.
const defaultRestore = 2

func newRestoreCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "restore [N]",
		Short: "Copy history entry N (1 = newest) to the clipboard",
		Long: fmt.Sprintf(`Copies the Nth most recent history entry back to the clipboard without
affecting cycling. N defaults to %d, the entry copied before the current one.`, defaultRestore),
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, args []string) error { return runRestore(v, args) },
	}
	addClientFlags(cmd)
	return cmd
}

func parsePosition(args []string) (int, error) {
	if len(args) == 0 {
		return defaultRestore, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", recall.ErrInvalidIndex, args[0])
	}
	return n, nil
}

func runRestore(v *viper.Viper, args []string) error {
	setupLogging(v, false)

	n, err := parsePosition(args)
	if err != nil {
		return err
	}

	s, err := open(v)
	if err != nil {
		return err
	}
	defer s.close()

	return s.notice("restore entry",
		func(ctx context.Context, c *grpcservice.Client) (string, error) { return c.Restore(ctx, n) },
		func(ctx context.Context, app *recall.Service) (string, error) { return app.Restore(ctx, n) },
	)
}
