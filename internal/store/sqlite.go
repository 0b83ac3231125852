package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/JaneXU85/pension-trust-abm/internal/models"
)

const timeFormat = time.RFC3339Nano

const runColumns = `id, sweep_id, replication_id, label,
    num_citizens, num_brokers, initial_trust, spillover_enabled,
    spillover_fraction, spillover_mode, steps, seed,
    final_trust, participation_rate, final_cooperation, collapsed, collapse_step,
    created_at`

// runRow is a RunRecord as stored, with the timestamp kept as text.
type runRow struct {
	models.RunRecord
	CreatedAt string `db:"created_at"`
}

func (r runRow) record() (models.RunRecord, error) {
	rec := r.RunRecord
	t, err := time.Parse(timeFormat, r.CreatedAt)
	if err != nil {
		return rec, fmt.Errorf("failed to parse created_at for run %s: %w", rec.ID, err)
	}
	rec.CreatedAt = t
	return rec, nil
}

type sweepRow struct {
	ID         string `db:"id"`
	Runs       int    `db:"runs"`
	Design     string `db:"design"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
}

func (r sweepRow) info() (SweepInfo, error) {
	info := SweepInfo{ID: r.ID, Runs: r.Runs}
	if r.Design != "" {
		info.Design = []byte(r.Design)
	}
	var err error
	if info.StartedAt, err = time.Parse(timeFormat, r.StartedAt); err != nil {
		return info, fmt.Errorf("failed to parse started_at for sweep %s: %w", r.ID, err)
	}
	if info.FinishedAt, err = time.Parse(timeFormat, r.FinishedAt); err != nil {
		return info, fmt.Errorf("failed to parse finished_at for sweep %s: %w", r.ID, err)
	}
	return info, nil
}

// SQLiteResultStore implements ResultStore using SQLite for persistence.
type SQLiteResultStore struct {
	mu     sync.RWMutex
	db     *sqlx.DB
	dbPath string
}

// NewSQLiteResultStore opens or creates the results database at dbPath.
// Parent directories are created as needed.
func NewSQLiteResultStore(dbPath string) (*SQLiteResultStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteResultStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteResultStore) Path() string {
	return s.dbPath
}

// SaveSweep records sweep metadata.
func (s *SQLiteResultStore) SaveSweep(ctx context.Context, sweep SweepInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sweep.ID == "" {
		return fmt.Errorf("sweep ID is required")
	}

	design := string(sweep.Design)
	if design == "" {
		design = "{}"
	}

	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO sweeps (id, runs, design, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?)`,
		sweep.ID, sweep.Runs, design,
		sweep.StartedAt.UTC().Format(timeFormat),
		sweep.FinishedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save sweep %s: %w", sweep.ID, err)
	}
	return nil
}

// GetSweep returns a sweep by ID.
func (s *SQLiteResultStore) GetSweep(ctx context.Context, id string) (*SweepInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row sweepRow
	err := s.db.GetContext(ctx, &row, `SELECT id, runs, design, started_at, finished_at FROM sweeps WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sweep %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sweep %s: %w", id, err)
	}

	info, err := row.info()
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ListSweeps returns every sweep, most recently saved first.
func (s *SQLiteResultStore) ListSweeps(ctx context.Context) ([]SweepInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []sweepRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, runs, design, started_at, finished_at FROM sweeps ORDER BY rowid DESC`); err != nil {
		return nil, fmt.Errorf("failed to list sweeps: %w", err)
	}

	out := make([]SweepInfo, 0, len(rows))
	for _, row := range rows {
		info, err := row.info()
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// SaveRuns stores records in a single transaction.
func (s *SQLiteResultStore) SaveRuns(ctx context.Context, records []models.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT OR REPLACE INTO runs (`+runColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("run ID is required")
		}
		created := rec.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.SweepID, rec.ReplicationID, rec.Label,
			rec.NumCitizens, rec.NumBrokers, rec.InitialTrust, rec.SpilloverEnabled,
			rec.SpilloverFraction, string(rec.SpilloverMode), rec.Steps, rec.Seed,
			rec.FinalTrust, rec.ParticipationRate, rec.FinalCooperation, rec.Collapsed, rec.CollapseStep,
			created.UTC().Format(timeFormat),
		); err != nil {
			return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit runs: %w", err)
	}
	return nil
}

// GetRun returns a run by ID.
func (s *SQLiteResultStore) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	rec, err := row.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRuns returns matching records in the order they were saved.
func (s *SQLiteResultStore) ListRuns(ctx context.Context, filter RunFilter) ([]models.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.SweepID != "" {
		where = append(where, "sweep_id = ?")
		args = append(args, filter.SweepID)
	}
	if filter.Label != "" {
		where = append(where, "label = ?")
		args = append(args, filter.Label)
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	out := make([]models.RunRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteResultStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
