package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaneXU85/pension-trust-abm/internal/constants"
	"github.com/JaneXU85/pension-trust-abm/internal/models"
)

func sampleRecord(id, sweepID, label string, replication int) models.RunRecord {
	p := models.DefaultParams()
	p.InitialTrust = 0.6
	p.SpilloverEnabled = true
	p.SpilloverFraction = 0.5
	p.Seed = 42 + int64(replication)

	rec := models.NewRunRecord(id, p, models.Reporters{
		MeanTrust:         0.35,
		ParticipationRate: 0.8,
		CooperationRate:   0.4,
		Steps:             p.Steps,
	})
	rec.SweepID = sweepID
	rec.Label = label
	rec.ReplicationID = replication
	rec.CreatedAt = time.Date(2024, 3, 1, 12, 0, replication, 0, time.UTC)
	return rec
}

// resultStores returns a fresh instance of every ResultStore implementation.
func resultStores(t *testing.T) map[string]ResultStore {
	t.Helper()

	sqliteStore, err := NewSQLiteResultStore(filepath.Join(t.TempDir(), "nested", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]ResultStore{
		"sqlite": sqliteStore,
		"memory": NewInMemoryResultStore(),
	}
}

func TestResultStore_RunRoundTrip(t *testing.T) {
	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := sampleRecord("run-1", "", "", 1)
			want.Collapsed = true
			want.CollapseStep = 17
			want.SpilloverMode = constants.SpilloverNeighbor

			require.NoError(t, s.SaveRuns(ctx, []models.RunRecord{want}))

			got, err := s.GetRun(ctx, "run-1")
			require.NoError(t, err)
			assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
			got.CreatedAt = want.CreatedAt
			assert.Equal(t, want, *got)
		})
	}
}

func TestResultStore_GetRunNotFound(t *testing.T) {
	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetRun(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.GetSweep(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestResultStore_ListRunsFilter(t *testing.T) {
	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var records []models.RunRecord
			for i := 1; i <= 6; i++ {
				label := constants.LabelNoSpillover
				if i%2 == 0 {
					label = constants.LabelFullSpillover
				}
				sweep := "sweep-a"
				if i > 4 {
					sweep = "sweep-b"
				}
				records = append(records, sampleRecord(fmt.Sprintf("run-%d", i), sweep, label, i))
			}
			require.NoError(t, s.SaveRuns(ctx, records))

			all, err := s.ListRuns(ctx, RunFilter{})
			require.NoError(t, err)
			require.Len(t, all, 6)
			for i, rec := range all {
				assert.Equal(t, i+1, rec.ReplicationID, "runs should keep save order")
			}

			bySweep, err := s.ListRuns(ctx, RunFilter{SweepID: "sweep-a"})
			require.NoError(t, err)
			assert.Len(t, bySweep, 4)

			byLabel, err := s.ListRuns(ctx, RunFilter{SweepID: "sweep-a", Label: constants.LabelFullSpillover})
			require.NoError(t, err)
			require.Len(t, byLabel, 2)
			assert.Equal(t, "run-2", byLabel[0].ID)
			assert.Equal(t, "run-4", byLabel[1].ID)

			limited, err := s.ListRuns(ctx, RunFilter{Limit: 3})
			require.NoError(t, err)
			require.Len(t, limited, 3)
			assert.Equal(t, "run-3", limited[2].ID)
		})
	}
}

func TestResultStore_SaveRunsReplaces(t *testing.T) {
	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := sampleRecord("run-1", "", "", 1)
			require.NoError(t, s.SaveRuns(ctx, []models.RunRecord{rec}))

			rec.FinalTrust = 0.05
			require.NoError(t, s.SaveRuns(ctx, []models.RunRecord{rec}))

			all, err := s.ListRuns(ctx, RunFilter{})
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, 0.05, all[0].FinalTrust)
		})
	}
}

func TestResultStore_SaveRunsRequiresID(t *testing.T) {
	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			err := s.SaveRuns(ctx, []models.RunRecord{
				sampleRecord("run-1", "", "", 1),
				sampleRecord("", "", "", 2),
			})
			require.Error(t, err)

			// The batch is all or nothing.
			all, err := s.ListRuns(ctx, RunFilter{})
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestResultStore_Sweeps(t *testing.T) {
	for name, s := range resultStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

			design, err := json.Marshal(map[string]any{"replications": 30})
			require.NoError(t, err)

			first := SweepInfo{ID: "sweep-a", Runs: 270, Design: design, StartedAt: started, FinishedAt: started.Add(time.Minute)}
			second := SweepInfo{ID: "sweep-b", Runs: 9, StartedAt: started.Add(time.Hour), FinishedAt: started.Add(2 * time.Hour)}
			require.NoError(t, s.SaveSweep(ctx, first))
			require.NoError(t, s.SaveSweep(ctx, second))

			got, err := s.GetSweep(ctx, "sweep-a")
			require.NoError(t, err)
			assert.Equal(t, 270, got.Runs)
			assert.JSONEq(t, `{"replications":30}`, string(got.Design))
			assert.True(t, started.Equal(got.StartedAt))
			assert.True(t, first.FinishedAt.Equal(got.FinishedAt))

			sweeps, err := s.ListSweeps(ctx)
			require.NoError(t, err)
			require.Len(t, sweeps, 2)
			assert.Equal(t, "sweep-b", sweeps[0].ID, "newest sweep first")
			assert.Equal(t, "sweep-a", sweeps[1].ID)

			assert.Error(t, s.SaveSweep(ctx, SweepInfo{}))
		})
	}
}

func TestSQLiteResultStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	s, err := NewSQLiteResultStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.SaveRuns(ctx, []models.RunRecord{sampleRecord("run-1", "", "", 1)}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteResultStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, dbPath, reopened.Path())
	got, err := reopened.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 0.35, got.FinalTrust)
}

func TestSchema_VersionAndReset(t *testing.T) {
	s, err := NewSQLiteResultStore(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	version, err := getSchemaVersion(ctx, s.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
	require.NoError(t, ValidateIntegrity(ctx, s.db))

	require.NoError(t, s.SaveRuns(ctx, []models.RunRecord{sampleRecord("run-1", "", "", 1)}))
	require.NoError(t, ResetSchema(ctx, s.db))

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}
