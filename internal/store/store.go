// Package store defines the ResultStore interface for persisting simulation
// run records and the sweeps that produced them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/JaneXU85/pension-trust-abm/internal/models"
)

// ErrNotFound is returned when a run or sweep does not exist.
var ErrNotFound = errors.New("not found")

// SweepInfo describes a stored sweep.
type SweepInfo struct {
	ID   string `json:"id"`
	Runs int    `json:"runs"`

	// Design is the JSON-encoded experiment design.
	Design json.RawMessage `json:"design,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunFilter narrows ListRuns. Zero fields match everything.
type RunFilter struct {
	SweepID string
	Label   string

	// Limit caps the number of records returned. 0 means no limit.
	Limit int
}

func (f RunFilter) matches(rec models.RunRecord) bool {
	if f.SweepID != "" && rec.SweepID != f.SweepID {
		return false
	}
	if f.Label != "" && rec.Label != f.Label {
		return false
	}
	return true
}

// ResultStore persists run records and sweeps.
type ResultStore interface {
	// SaveSweep records sweep metadata, replacing an existing sweep with the same ID.
	SaveSweep(ctx context.Context, sweep SweepInfo) error

	// GetSweep returns a sweep by ID or ErrNotFound.
	GetSweep(ctx context.Context, id string) (*SweepInfo, error)

	// ListSweeps returns every sweep, most recently saved first.
	ListSweeps(ctx context.Context) ([]SweepInfo, error)

	// SaveRuns stores records atomically. Records with an existing ID are replaced.
	SaveRuns(ctx context.Context, records []models.RunRecord) error

	// GetRun returns a run by ID or ErrNotFound.
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)

	// ListRuns returns matching records in the order they were saved.
	ListRuns(ctx context.Context, filter RunFilter) ([]models.RunRecord, error)

	Close() error
}
