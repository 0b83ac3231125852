package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaneXU85/pension-trust-abm/internal/models"
	"github.com/JaneXU85/pension-trust-abm/internal/simulation"
)

// Sweep is the outcome of running a Design.
type Sweep struct {
	ID         string             `json:"id"`
	Design     Design             `json:"design"`
	Records    []models.RunRecord `json:"records"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// ProgressFunc is called once per completed run. Calls are serialized.
type ProgressFunc func(done, total int, rec models.RunRecord)

// Runner executes the jobs of a design on a bounded worker pool.
type Runner struct {
	// Workers bounds the number of concurrently running engines.
	// Values below 1 mean runtime.GOMAXPROCS(0).
	Workers int

	// OnResult, when set, receives each record as its run completes.
	OnResult ProgressFunc

	Logger *slog.Logger
}

// NewRunner creates a runner with the given worker bound.
func NewRunner(workers int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{Workers: workers, Logger: logger}
}

func (r *Runner) workers() int {
	if r.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return r.Workers
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// Run validates d and executes every job it expands to. Each job runs on its
// own engine with its own seed, so the records do not depend on the worker
// count. Records are returned in job order. Cancelling ctx stops scheduling
// new jobs and Run returns the context error.
func (r *Runner) Run(ctx context.Context, d Design) (*Sweep, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	sweep := &Sweep{
		ID:        uuid.NewString(),
		Design:    d,
		StartedAt: time.Now().UTC(),
	}
	jobs := d.Expand()
	records := make([]models.RunRecord, len(jobs))
	logger := r.logger().With("sweep_id", sweep.ID)
	logger.Info("sweep started", "runs", len(jobs), "workers", r.workers())

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())

	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			reporters, err := simulation.Simulate(job.Params)
			if err != nil {
				return fmt.Errorf("run %d: %w", job.RunID, err)
			}

			rec := models.NewRunRecord(uuid.NewString(), job.Params, reporters)
			rec.SweepID = sweep.ID
			rec.ReplicationID = job.RunID
			rec.Label = job.Label
			records[i] = rec

			logger.Debug("run finished",
				"run", job.RunID,
				"label", job.Label,
				"initial_trust", job.Params.InitialTrust,
				"final_trust", rec.FinalTrust,
			)

			if r.OnResult != nil {
				mu.Lock()
				done++
				r.OnResult(done, len(jobs), rec)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sweep.Records = records
	sweep.FinishedAt = time.Now().UTC()
	logger.Info("sweep finished", "runs", len(records), "elapsed", sweep.FinishedAt.Sub(sweep.StartedAt))
	return sweep, nil
}
