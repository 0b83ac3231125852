package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaneXU85/pension-trust-abm/internal/config"
	"github.com/JaneXU85/pension-trust-abm/internal/experiment"
	"github.com/JaneXU85/pension-trust-abm/internal/models"
)

// isolateHome sets HOME to a temp directory to avoid touching real ~/.trustsim/
// MUST be called for any test that loads config or opens the store
func isolateHome(t *testing.T) string {
	t.Helper()
	tmpHome := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(tmpHome, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", tmpHome)
	return tmpHome
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, args ...string) models.RunRecord {
	t.Helper()
	out, err := execute(t, append([]string{"run", "--json"}, args...)...)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var rec models.RunRecord
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("failed to decode run output %q: %v", out, err)
	}
	return rec
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"version", "run", "sweep", "runs", "summary", "export", "config", "backup", "restore"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestVersionCmd_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("failed to decode version output: %v", err)
	}
	if got["version"] != version {
		t.Errorf("version = %q, want %q", got["version"], version)
	}
}

func TestRunCmd_Flags(t *testing.T) {
	isolateHome(t)

	rec := runJSON(t, "--citizens", "20", "--brokers", "3", "--trust", "0.6",
		"--spillover", "--fraction", "0.5", "--steps", "5", "--seed", "7")

	if rec.NumCitizens != 20 || rec.NumBrokers != 3 {
		t.Errorf("population = %d/%d, want 20/3", rec.NumCitizens, rec.NumBrokers)
	}
	if rec.Steps != 5 || rec.Seed != 7 {
		t.Errorf("steps/seed = %d/%d, want 5/7", rec.Steps, rec.Seed)
	}
	if !rec.SpilloverEnabled || rec.SpilloverFraction != 0.5 {
		t.Errorf("spillover = %v/%v, want true/0.5", rec.SpilloverEnabled, rec.SpilloverFraction)
	}
	if rec.FinalTrust < 0 || rec.FinalTrust > 0.6 {
		t.Errorf("final trust %v outside [0, 0.6]", rec.FinalTrust)
	}
	if rec.ID == "" {
		t.Error("expected run id")
	}
}

func TestRunCmd_Deterministic(t *testing.T) {
	isolateHome(t)

	args := []string{"--trust", "0.6", "--spillover", "--fraction", "0.5", "--seed", "42"}
	a := runJSON(t, args...)
	b := runJSON(t, args...)

	if a.FinalTrust != b.FinalTrust || a.ParticipationRate != b.ParticipationRate || a.FinalCooperation != b.FinalCooperation {
		t.Errorf("same seed gave different outcomes: %+v vs %+v", a, b)
	}
}

func TestRunCmd_NoSpilloverKeepsTrust(t *testing.T) {
	isolateHome(t)

	rec := runJSON(t, "--trust", "0.6", "--steps", "20")
	if math.Abs(rec.FinalTrust-0.6) > 1e-9 {
		t.Errorf("final trust = %v, want 0.6 without spillover", rec.FinalTrust)
	}
	if rec.ParticipationRate != 1 {
		t.Errorf("participation = %v, want 1", rec.ParticipationRate)
	}
}

func TestRunCmd_InvalidParams(t *testing.T) {
	isolateHome(t)

	tests := [][]string{
		{"--trust", "1.5"},
		{"--brokers", "0"},
		{"--spillover", "--fraction=-0.2"},
		{"--mode", "cascade"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := execute(t, append([]string{"run"}, args...)...)
			if !errors.Is(err, models.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRunCmd_Trace(t *testing.T) {
	isolateHome(t)
	tracePath := filepath.Join(t.TempDir(), "trace", "run.jsonl")

	runJSON(t, "--steps", "8", "--spillover", "--trace", tracePath)

	f, err := os.Open(tracePath)
	if err != nil {
		t.Fatalf("failed to open trace: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("invalid trace line %q: %v", scanner.Text(), err)
		}
		lines++
		if step, _ := event["step"].(float64); int(step) != lines {
			t.Errorf("line %d has step %v", lines, event["step"])
		}
	}
	if lines != 8 {
		t.Errorf("trace has %d lines, want 8", lines)
	}
}

func TestRunCmd_SaveAndList(t *testing.T) {
	isolateHome(t)
	dbPath := filepath.Join(t.TempDir(), "results.db")

	rec := runJSON(t, "--db", dbPath, "--save", "--steps", "3")

	out, err := execute(t, "runs", "--db", dbPath, "--json")
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	var listed struct {
		Runs  []models.RunRecord `json:"runs"`
		Count int                `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("failed to decode runs output: %v", err)
	}
	if listed.Count != 1 || listed.Runs[0].ID != rec.ID {
		t.Errorf("runs = %+v, want the saved run %s", listed, rec.ID)
	}

	text, err := execute(t, "runs", "--db", dbPath)
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if !strings.Contains(text, shortID(rec.ID)) {
		t.Errorf("runs output missing %s:\n%s", shortID(rec.ID), text)
	}
}

func TestSweepSummaryExport(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "results.db")
	csvPath := filepath.Join(tmpDir, "sweep.csv")

	out, err := execute(t, "sweep", "--db", dbPath, "--json",
		"--replications", "2", "--steps", "5", "--workers", "3", "--csv", csvPath)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	var sweep struct {
		SweepID   string               `json:"sweep_id"`
		Runs      int                  `json:"runs"`
		Summaries []experiment.Summary `json:"summaries"`
	}
	if err := json.Unmarshal([]byte(out), &sweep); err != nil {
		t.Fatalf("failed to decode sweep output: %v", err)
	}
	if sweep.Runs != 18 {
		t.Errorf("sweep ran %d runs, want 18", sweep.Runs)
	}
	if len(sweep.Summaries) != 9 {
		t.Errorf("got %d summaries, want 9", len(sweep.Summaries))
	}

	rows := readCSV(t, csvPath)
	if len(rows) != 19 {
		t.Errorf("csv has %d rows, want 19", len(rows))
	}

	// summary defaults to the latest sweep
	out, err = execute(t, "summary", "--db", dbPath, "--json")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	var summary struct {
		SweepID   string               `json:"sweep_id"`
		Summaries []experiment.Summary `json:"summaries"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("failed to decode summary output: %v", err)
	}
	if summary.SweepID != sweep.SweepID {
		t.Errorf("summary sweep = %s, want %s", summary.SweepID, sweep.SweepID)
	}
	for i, s := range summary.Summaries {
		if s.Runs != 2 {
			t.Errorf("summary %d has %d runs, want 2", i, s.Runs)
		}
		if s.FinalTrust.Mean != sweep.Summaries[i].FinalTrust.Mean {
			t.Errorf("summary %d mean %v differs from sweep %v", i, s.FinalTrust.Mean, sweep.Summaries[i].FinalTrust.Mean)
		}
	}

	exportPath := filepath.Join(tmpDir, "export.csv")
	if _, err := execute(t, "export", "--db", dbPath, "--sweep", sweep.SweepID, "-o", exportPath); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if got := readCSV(t, exportPath); len(got) != 19 {
		t.Errorf("export has %d rows, want 19", len(got))
	}

	out, err = execute(t, "export", "--db", dbPath, "--format", "jsonl")
	if err != nil {
		t.Fatalf("jsonl export failed: %v", err)
	}
	if n := strings.Count(out, "\n"); n != 18 {
		t.Errorf("jsonl export has %d lines, want 18", n)
	}
}

func TestSummaryCmd_NoSweeps(t *testing.T) {
	isolateHome(t)
	dbPath := filepath.Join(t.TempDir(), "results.db")

	if _, err := execute(t, "summary", "--db", dbPath); err == nil {
		t.Error("expected error when no sweeps are stored")
	}
}

func TestExportCmd_InvalidFormat(t *testing.T) {
	isolateHome(t)
	dbPath := filepath.Join(t.TempDir(), "results.db")

	if _, err := execute(t, "export", "--db", dbPath, "--format", "xml"); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestConfigInitAndGet(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	if _, err := execute(t, "config", "init", "--config", path); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := execute(t, "config", "init", "--config", path); err == nil {
		t.Error("expected error when config exists without --force")
	}
	if _, err := execute(t, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		t.Fatalf("failed to load written config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written config invalid: %v", err)
	}

	out, err := execute(t, "config", "get", "model.num_brokers", "--config", path)
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(out) != "model.num_brokers = 5" {
		t.Errorf("config get = %q", out)
	}

	if _, err := execute(t, "config", "get", "model.nope", "--config", path); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigList_EnvOverride(t *testing.T) {
	isolateHome(t)
	t.Setenv("TRUSTSIM_SEED", "99")

	out, err := execute(t, "config", "list", "--json")
	if err != nil {
		t.Fatalf("config list failed: %v", err)
	}
	var cfg config.TrustsimConfig
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}
	if cfg.Model.Seed != 99 {
		t.Errorf("seed = %d, want 99 from TRUSTSIM_SEED", cfg.Model.Seed)
	}
}

func TestBackupRestoreCmd(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "results.db")
	backupPath := filepath.Join(tmpDir, "backups", "trustsim-backup-20240301-120000.json.gz")

	rec := runJSON(t, "--db", dbPath, "--save", "--steps", "3")

	if _, err := execute(t, "backup", "--db", dbPath, "--output", backupPath); err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if _, err := execute(t, "backup", "verify", backupPath); err != nil {
		t.Errorf("backup verify failed: %v", err)
	}

	restoredDB := filepath.Join(tmpDir, "restored.db")
	out, err := execute(t, "restore", backupPath, "--db", restoredDB, "--json")
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	var result struct {
		RunsRestored int `json:"runs_restored"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to decode restore output: %v", err)
	}
	if result.RunsRestored != 1 {
		t.Errorf("restored %d runs, want 1", result.RunsRestored)
	}

	out, err = execute(t, "runs", "--db", restoredDB)
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if !strings.Contains(out, shortID(rec.ID)) {
		t.Errorf("restored store missing run %s:\n%s", rec.ID, out)
	}

	if _, err := execute(t, "restore", backupPath, "--db", restoredDB, "--mode", "wipe"); err == nil {
		t.Error("expected error for invalid restore mode")
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "abc"},
		{"0123456789abcdef", "01234567"},
	}
	for _, tt := range tests {
		if got := shortID(tt.in); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read csv: %v", err)
	}
	return rows
}
