package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/config"
	"go.klb.dev/recall/internal/cycle"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/ipc"
	"go.klb.dev/recall/internal/kv"
	"go.klb.dev/recall/internal/logging"
	"go.klb.dev/recall/internal/watcher"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and RECALL_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → RECALL_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("recall")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/recall/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/recall", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("RECALL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for watch, warn otherwise)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addTunableFlags adds the history and cycle settings every command reads.
func addTunableFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int(config.KeyMaxItems, history.DefaultMaxItems, "maximum number of history entries kept")
	f.Duration(config.KeyPollInterval, watcher.DefaultInterval, "clipboard poll interval")
	f.Int(config.KeyCycleLimit, cycle.DefaultLimit, "number of entries one cycle session walks through")
	f.Duration(config.KeyCycleTimeout, cycle.DefaultTimeout, "pause after which cycling starts again at the newest entry")
	f.String("store", kv.DefaultPath(), "path of the history store file")
}

// daemonTunables are the settings a running daemon applies from its own
// configuration when it serves a client command.
var daemonTunables = []string{
	config.KeyMaxItems,
	config.KeyPollInterval,
	config.KeyCycleLimit,
	config.KeyCycleTimeout,
	"store",
}

// addNotifyFlag adds --notify with the given default.
func addNotifyFlag(cmd *cobra.Command, def string) {
	cmd.Flags().String("notify", def, "where notices go: terminal|log|none")
}

// addClientFlags registers the flags of commands that can either talk to a
// running daemon or work on the store directly.
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-daemon", false, "operate on the store directly even if a daemon is running")
	addTunableFlags(cmd)
	for _, name := range daemonTunables {
		f := cmd.Flags().Lookup(name)
		f.Usage += " (a running daemon uses its own setting)"
	}
	addNotifyFlag(cmd, "terminal")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)
}

// setupLogging reads logging flags from viper and configures slog. The
// daemon logs at info (debug when run interactively); one-shot commands stay
// at warn so the notice is their only output.
func setupLogging(v *viper.Viper, daemon bool) {
	fallback := slog.LevelWarn
	interactive := false
	if daemon {
		fallback = slog.LevelInfo
		interactive = v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	}
	resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"), fallback)
}

func newConfigCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Prints the configuration recall would use, after applying the config
file, RECALL_* env vars and flags, in config-file (TOML) form.

Non-positive values are replaced by their defaults.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runConfig(cmd, v) },
	}
	addTunableFlags(cmd)
	addNotifyFlag(cmd, "terminal")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)
	return cmd
}

func runConfig(cmd *cobra.Command, v *viper.Viper) error {
	setupLogging(v, false)

	out, err := config.Viper{V: v}.Current().TOML()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if used := v.ConfigFileUsed(); used != "" {
		fmt.Fprintf(w, "# config file: %s\n", used)
	} else {
		fmt.Fprintln(w, "# config file: none")
	}
	fmt.Fprintf(w, "# socket: %s\n", ipc.SocketPath())
	fmt.Fprintf(w, "store = %q\n", v.GetString("store"))
	fmt.Fprintf(w, "notify = %q\n", v.GetString("notify"))
	_, err = w.Write(out)
	return err
}
