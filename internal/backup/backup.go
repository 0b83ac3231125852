// Package backup provides backup and restore functionality for the results store.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JaneXU85/pension-trust-abm/internal/models"
	"github.com/JaneXU85/pension-trust-abm/internal/store"
)

// Archive is the payload of a backup file.
type Archive struct {
	Version   int                `json:"version"`
	CreatedAt time.Time          `json:"created_at"`
	Sweeps    []store.SweepInfo  `json:"sweeps"`
	Runs      []models.RunRecord `json:"runs"`
}

// DefaultBackupDir returns the default backup directory (~/.trustsim/backups/).
func DefaultBackupDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".trustsim", "backups"), nil
}

// Backup writes every sweep and run in the store to outputPath.
func Backup(ctx context.Context, rs store.ResultStore, outputPath string) (*Archive, error) {
	sweeps, err := rs.ListSweeps(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweeps: %w", err)
	}

	runs, err := rs.ListRuns(ctx, store.RunFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	archive := &Archive{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC(),
		Sweeps:    sweeps,
		Runs:      runs,
	}

	if err := Write(outputPath, archive); err != nil {
		return nil, err
	}
	return archive, nil
}

// RestoreMode controls how restore handles existing data.
type RestoreMode string

const (
	// RestoreMerge skips runs and sweeps that already exist (default).
	RestoreMerge RestoreMode = "merge"
	// RestoreReplace overwrites existing runs and sweeps with the archived copy.
	RestoreReplace RestoreMode = "replace"
)

// RestoreResult contains statistics about the restore operation.
type RestoreResult struct {
	RunsRestored   int `json:"runs_restored"`
	RunsSkipped    int `json:"runs_skipped"`
	SweepsRestored int `json:"sweeps_restored"`
	SweepsSkipped  int `json:"sweeps_skipped"`
}

// Restore imports runs and sweeps from a backup file into the store.
func Restore(ctx context.Context, rs store.ResultStore, inputPath string, mode RestoreMode) (*RestoreResult, error) {
	archive, err := Read(inputPath)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{}

	var runs []models.RunRecord
	for _, rec := range archive.Runs {
		if mode == RestoreMerge {
			_, err := rs.GetRun(ctx, rec.ID)
			if err == nil {
				result.RunsSkipped++
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("failed to check existing run %s: %w", rec.ID, err)
			}
		}
		runs = append(runs, rec)
	}
	if err := rs.SaveRuns(ctx, runs); err != nil {
		return nil, fmt.Errorf("failed to restore runs: %w", err)
	}
	result.RunsRestored = len(runs)

	// Sweeps are listed newest first; restore oldest first to keep that order.
	for i := len(archive.Sweeps) - 1; i >= 0; i-- {
		sweep := archive.Sweeps[i]
		if mode == RestoreMerge {
			_, err := rs.GetSweep(ctx, sweep.ID)
			if err == nil {
				result.SweepsSkipped++
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("failed to check existing sweep %s: %w", sweep.ID, err)
			}
		}
		if err := rs.SaveSweep(ctx, sweep); err != nil {
			return nil, fmt.Errorf("failed to restore sweep %s: %w", sweep.ID, err)
		}
		result.SweepsRestored++
	}

	return result, nil
}

// GenerateBackupPath creates a timestamped backup filename in the given directory.
func GenerateBackupPath(dir string) string {
	ts := time.Now().Format("20060102-150405")
	return filepath.Join(dir, fmt.Sprintf("%s%s%s", filePrefix, ts, fileExt))
}
