package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JaneXU85/pension-trust-abm/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage trustsim configuration",
		Long: `View and initialize trustsim configuration.

Configuration is read from ~/.trustsim/config.yaml (or --config), then
TRUSTSIM_* environment variables, then command line flags.

Examples:
  trustsim config list                 # Show the effective configuration
  trustsim config get model.seed       # Get a specific setting
  trustsim config init                 # Write a default config file`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	return cmd
}

// getConfigValue retrieves a config value by dot-notation key.
func getConfigValue(cfg *config.TrustsimConfig, key string) (any, bool) {
	switch strings.ToLower(key) {
	case "model.num_citizens":
		return cfg.Model.NumCitizens, true
	case "model.num_brokers":
		return cfg.Model.NumBrokers, true
	case "model.initial_trust":
		return cfg.Model.InitialTrust, true
	case "model.spillover_enabled":
		return cfg.Model.SpilloverEnabled, true
	case "model.spillover_fraction":
		return cfg.Model.SpilloverFraction, true
	case "model.spillover_mode":
		return string(cfg.Model.SpilloverMode), true
	case "model.trust_decrement":
		return cfg.Model.TrustDecrement, true
	case "model.participation_threshold":
		return cfg.Model.ParticipationThreshold, true
	case "model.steps":
		return cfg.Model.Steps, true
	case "model.seed":
		return cfg.Model.Seed, true
	case "sweep.initial_trust":
		return cfg.Sweep.InitialTrust, true
	case "sweep.replications":
		return cfg.Sweep.Replications, true
	case "sweep.steps":
		return cfg.Sweep.Steps, true
	case "sweep.seed_base":
		return cfg.Sweep.SeedBase, true
	case "sweep.workers":
		return cfg.Sweep.Workers, true
	case "store.path":
		return cfg.Store.Path, true
	case "backup.dir":
		return cfg.Backup.Dir, true
	case "backup.retention.max_count":
		return cfg.Backup.Retention.MaxCount, true
	case "backup.retention.max_age":
		return cfg.Backup.Retention.MaxAge, true
	case "logging.level":
		return cfg.Logging.Level, true
	case "logging.format":
		return cfg.Logging.Format, true
	default:
		return nil, false
	}
}
