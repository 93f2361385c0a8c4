package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newClearCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "clear",
		Short:   "Delete every history entry",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runClear(v) },
	}
	cmd.Flags().BoolP("yes", "y", false, "do not refuse to clear")
	addClientFlags(cmd)
	return cmd
}

func runClear(v *viper.Viper) error {
	setupLogging(v, false)

	if !v.GetBool("yes") {
		return errors.New("refusing to clear history without --yes")
	}

	s, err := open(v)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := rpcContext()
	defer cancel()

	if s.daemon() {
		err = s.client.Clear(ctx)
	} else {
		err = s.local.Clear(ctx)
	}
	if err != nil {
		return s.fail(ctx, "clear history", err, !s.daemon())
	}
	s.show(ctx, "History cleared")
	return nil
}
