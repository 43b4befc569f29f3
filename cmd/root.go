package main

import (
	"fmt"
	"os"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/config"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	serve := newServeCommand(opts)

	root := &cobra.Command{
		Use:   "event-registration-api",
		Short: "Event registration API with capacity-safe registrations",
		Long: `Event registration API serves events, registrations and occupancy
statistics over HTTP, backed by PostgreSQL.

Registrations for one event are serialised with a row lock so an event can
never be booked beyond its capacity.`,
		SilenceUsage: true,
		// Run serve when no subcommand is given.
		RunE: serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "TOML config file (optional, env vars override it)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default: info)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: json, console (default: json)")

	root.AddCommand(serve)
	root.AddCommand(newMigrateCommand(opts))
	root.AddCommand(newSeedCommand(opts))
	root.AddCommand(newUsersCommand(opts))
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies the logging flag overrides.
func (o *globalOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, nil
}
