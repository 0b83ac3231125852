package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/JaneXU85/pension-trust-abm/internal/config"
	"github.com/JaneXU85/pension-trust-abm/internal/logging"
	"github.com/JaneXU85/pension-trust-abm/internal/store"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trustsim",
		Short: "Trust dynamics simulation for pension governance",
		Long: `trustsim simulates trust between citizens and pension brokers.

Each step one broker is punished for misconduct. With spillover enabled the
punishment erodes trust across the population, and citizens whose trust falls
below the participation threshold stop participating for good.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.trustsim/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Results database path (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug, trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newRunsCmd(),
		newSummaryCmd(),
		newExportCmd(),
		newConfigCmd(),
		newBackupCmd(),
		newRestoreCmd(),
	)

	return rootCmd
}

// loadConfig loads the effective configuration: file, environment, then
// the global flags.
func loadConfig(cmd *cobra.Command) (*config.TrustsimConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Store.Path = db
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// newLogger builds the operational logger. Logs go to stderr so stdout stays
// machine readable.
func newLogger(cmd *cobra.Command, cfg *config.TrustsimConfig) *slog.Logger {
	return logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
}

func openStore(cfg *config.TrustsimConfig) (*store.SQLiteResultStore, error) {
	s, err := store.NewSQLiteResultStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results store: %w", err)
	}
	return s, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
