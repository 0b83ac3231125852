package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JaneXU85/pension-trust-abm/internal/backup"
	"github.com/JaneXU85/pension-trust-abm/internal/config"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up stored runs and sweeps",
		Long: `Back up every stored run and sweep to a compressed, checksummed file.

Default location: ~/.trustsim/backups/trustsim-backup-YYYYMMDD-HHMMSS.json.gz
Keeps backups according to the retention policy (default: last 10).

Examples:
  trustsim backup                             # Backup to default location
  trustsim backup --output results.json.gz    # Backup to specific file
  trustsim backup list                        # List all backups
  trustsim backup verify <file>               # Verify backup integrity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			outputPath, _ := cmd.Flags().GetString("output")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			if outputPath == "" {
				dir, err := backupDir(cfg)
				if err != nil {
					return err
				}
				outputPath = backup.GenerateBackupPath(dir)
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			archive, err := backup.Backup(cmd.Context(), s, outputPath)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			policy, err := buildRetentionPolicy(&cfg.Backup.Retention)
			if err != nil {
				return err
			}
			if deleted, err := backup.ApplyRetention(filepath.Dir(outputPath), policy); err != nil {
				logger.Warn("failed to apply retention", "error", err)
			} else if len(deleted) > 0 {
				logger.Info("removed old backups", "count", len(deleted))
			}

			var sizeBytes int64
			if info, err := os.Stat(outputPath); err == nil {
				sizeBytes = info.Size()
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"path":        outputPath,
					"run_count":   len(archive.Runs),
					"sweep_count": len(archive.Sweeps),
					"version":     archive.Version,
					"size_bytes":  sizeBytes,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %s runs, %d sweeps (%s)\n",
				humanize.Comma(int64(len(archive.Runs))), len(archive.Sweeps), humanize.Bytes(uint64(sizeBytes)))
			fmt.Fprintf(cmd.OutOrStdout(), "  Path: %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().String("output", "", "Output file path (default: auto-generated in ~/.trustsim/backups/)")

	cmd.AddCommand(
		newBackupListCmd(),
		newBackupVerifyCmd(),
	)

	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups in the backup directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir, err := backupDir(cfg)
			if err != nil {
				return err
			}

			backups, err := backup.ListBackups(dir)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			if jsonOut {
				if backups == nil {
					backups = []backup.BackupInfo{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"dir":     dir,
					"backups": backups,
				})
			}

			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(out, "No backups in %s\n", dir)
				return nil
			}
			for _, b := range backups {
				fmt.Fprintf(out, "%-45s %8s %6d runs  %s\n",
					filepath.Base(b.Path), humanize.Bytes(uint64(b.Size)), b.RunCount, humanize.Time(b.CreatedAt))
			}
			return nil
		},
	}
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a backup's checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			header, err := backup.ReadHeader(args[0])
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}
			if err := backup.VerifyChecksum(args[0]); err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"path":   args[0],
					"valid":  true,
					"header": header,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup OK: %d runs, %d sweeps, created %s\n",
				header.RunCount, header.SweepCount, header.CreatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore runs and sweeps from a backup file",
		Long: `Restore runs and sweeps from a backup file into the results database.

Modes:
  merge   - Skip runs and sweeps that already exist (default)
  replace - Overwrite existing runs and sweeps with the backup copy

Examples:
  trustsim restore ~/.trustsim/backups/trustsim-backup-20240301-120000.json.gz
  trustsim restore results.json.gz --mode replace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			mode, _ := cmd.Flags().GetString("mode")

			var restoreMode backup.RestoreMode
			switch mode {
			case "merge":
				restoreMode = backup.RestoreMerge
			case "replace":
				restoreMode = backup.RestoreReplace
			default:
				return fmt.Errorf("invalid mode: %s (valid: merge, replace)", mode)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := backup.Restore(cmd.Context(), s, args[0], restoreMode)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d runs (%d skipped), %d sweeps (%d skipped)\n",
				result.RunsRestored, result.RunsSkipped, result.SweepsRestored, result.SweepsSkipped)
			return nil
		},
	}

	cmd.Flags().String("mode", "merge", "Restore mode: merge, replace")
	return cmd
}

func backupDir(cfg *config.TrustsimConfig) (string, error) {
	if cfg.Backup.Dir != "" {
		return cfg.Backup.Dir, nil
	}
	dir, err := backup.DefaultBackupDir()
	if err != nil {
		return "", fmt.Errorf("failed to get backup directory: %w", err)
	}
	return dir, nil
}

// buildRetentionPolicy constructs a retention policy from config.
func buildRetentionPolicy(cfg *config.RetentionConfig) (backup.RetentionPolicy, error) {
	var policies []backup.RetentionPolicy

	if cfg.MaxCount > 0 {
		policies = append(policies, &backup.CountPolicy{MaxCount: cfg.MaxCount})
	}

	if cfg.MaxAge != "" {
		d, err := backup.ParseDuration(cfg.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("invalid backup.retention.max_age: %w", err)
		}
		policies = append(policies, &backup.AgePolicy{MaxAge: d})
	}

	switch len(policies) {
	case 0:
		return &backup.CountPolicy{MaxCount: 10}, nil
	case 1:
		return policies[0], nil
	default:
		return &backup.CompositePolicy{Policies: policies}, nil
	}
}
