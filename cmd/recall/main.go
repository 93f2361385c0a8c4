// recall: clipboard history with cycling.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/recall/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

// errReported marks a failure the user has already been told about through
// the notifier. main exits 1 without printing it again.
var errReported = errors.New("reported")

func main() {
	root := &cobra.Command{
		Use:   "recall",
		Short: "Clipboard history with cycling",
		Long: `recall keeps a bounded history of text copied to the system clipboard
and lets you step back through it.

Run "recall watch" in the background to capture the clipboard. Bind
"recall cycle" to a hotkey: repeated presses within the cycle timeout walk
back through recent entries, a press after a pause starts again at the newest.

Config file search order (first found wins):
  /etc/recall/recall.toml
  $HOME/.config/recall/recall.toml
  path supplied via --config

All flags can be set via RECALL_<FLAG> env vars or config-file keys.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newWatchCmd(),
		newListCmd(),
		newCycleCmd(),
		newRestoreCmd(),
		newAddCmd(),
		newClearCmd(),
		newStatusCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "recall:", err)
		}
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("recall %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed. An
// explicit level wins; otherwise interactive runs log at debug and everything
// else at fallback.
func resolveLogging(interactive bool, formatStr, levelStr string, fallback slog.Level) {
	if interactive {
		fallback = slog.LevelDebug
	}
	logging.Setup(logging.ParseFormat(formatStr), logging.ParseLevel(levelStr, fallback))
}
