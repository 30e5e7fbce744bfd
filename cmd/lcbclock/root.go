package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/stateflow/pkg/stateflow/config"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "lcbclock",
		Short:         "Broadcast clock node",
		Long:          "Run a virtual broadcast clock with date and periodic alarms, and inspect event blocks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "node config file (.yaml, .yml, .json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log level (debug|info|warn|error)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newAlignCommand())

	return cmd
}

// loadSettings reads the config file, if any, and applies flag overrides.
func (o *rootOptions) loadSettings() (config.NodeSettings, error) {
	cfg := config.New(nil)
	if o.ConfigPath != "" {
		loaded, err := config.FromFile(o.ConfigPath)
		if err != nil {
			return config.NodeSettings{}, err
		}
		cfg = loaded
	}

	settings, err := config.LoadNodeSettings(cfg)
	if err != nil {
		return config.NodeSettings{}, err
	}
	if o.LogLevel != "" {
		level, err := config.ParseLevel(o.LogLevel)
		if err != nil {
			return config.NodeSettings{}, err
		}
		settings.LogLevel = level
	}
	return settings, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
