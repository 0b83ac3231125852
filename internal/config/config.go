// Package config provides unified configuration loading for trustsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/JaneXU85/pension-trust-abm/internal/experiment"
	"github.com/JaneXU85/pension-trust-abm/internal/models"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRUSTSIM_"

// TrustsimConfig contains all trustsim configuration settings.
type TrustsimConfig struct {
	// Model holds the parameters of a single run (trustsim run).
	Model models.Params `json:"model" yaml:"model"`

	// Sweep holds the experiment design (trustsim sweep).
	Sweep SweepConfig `json:"sweep" yaml:"sweep"`

	// Store configures the results database.
	Store StoreConfig `json:"store" yaml:"store"`

	// Backup configures results backups.
	Backup BackupConfig `json:"backup" yaml:"backup"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SweepConfig is an experiment design plus execution settings.
type SweepConfig struct {
	experiment.Design `yaml:",inline"`

	// Workers bounds parallel runs. 0 uses every available CPU.
	Workers int `json:"workers" yaml:"workers"`
}

// StoreConfig configures the SQLite results store.
type StoreConfig struct {
	Path string `json:"path" yaml:"path"`
}

// BackupConfig configures where backups go and how many are kept.
type BackupConfig struct {
	// Dir is the backup directory. Empty means ~/.trustsim/backups.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	Retention RetentionConfig `json:"retention" yaml:"retention"`
}

// RetentionConfig configures backup retention. A backup is kept if any
// configured rule keeps it.
type RetentionConfig struct {
	// MaxCount keeps the N most recent backups. 0 disables the rule.
	MaxCount int `json:"max_count" yaml:"max_count"`

	// MaxAge keeps backups younger than this, e.g. "30d", "2w", "720h".
	MaxAge string `json:"max_age,omitempty" yaml:"max_age,omitempty"`
}

// LoggingConfig configures trustsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "error", "warn", "info" (default),
	// "debug", or "trace". "trace" logs every simulation step.
	Level string `json:"level" yaml:"level"`

	// Format is "text" (default) or "json".
	Format string `json:"format" yaml:"format"`
}

// envOverrides lists the variables read on top of the file configuration.
// Pointer fields stay nil when the variable is unset.
type envOverrides struct {
	LogLevel  *string  `env:"LOG_LEVEL"`
	LogFormat *string  `env:"LOG_FORMAT"`
	DB        *string  `env:"DB"`
	Workers   *int     `env:"WORKERS"`
	Seed      *int64   `env:"SEED"`
	Citizens  *int     `env:"CITIZENS"`
	Brokers   *int     `env:"BROKERS"`
	Steps     *int     `env:"STEPS"`
	Trust     *float64 `env:"INITIAL_TRUST"`
}

// Dir returns the trustsim home directory (~/.trustsim), falling back to a
// relative .trustsim when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trustsim"
	}
	return filepath.Join(home, ".trustsim")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns a TrustsimConfig with sensible defaults.
func Default() *TrustsimConfig {
	return &TrustsimConfig{
		Model: models.DefaultParams(),
		Sweep: SweepConfig{
			Design:  experiment.DefaultDesign(),
			Workers: 0,
		},
		Store: StoreConfig{
			Path: filepath.Join(Dir(), "results.db"),
		},
		Backup: BackupConfig{
			Retention: RetentionConfig{MaxCount: 10},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a file and environment variables.
// Order: defaults -> path (or ~/.trustsim/config.yaml if present) -> environment variables.
// An explicit path that does not exist is an error; a missing default file is not.
func Load(path string) (*TrustsimConfig, error) {
	config := Default()

	if path == "" {
		if _, statErr := os.Stat(DefaultPath()); statErr == nil {
			path = DefaultPath()
		}
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their default values.
func LoadFromFile(path string) (*TrustsimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Path = expandHome(os.ExpandEnv(config.Store.Path))
	config.Backup.Dir = expandHome(os.ExpandEnv(config.Backup.Dir))

	return config, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *TrustsimConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *TrustsimConfig) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}

	if err := c.Sweep.Design.Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("sweep: workers must be non-negative, got %d", c.Sweep.Workers)
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store: path must not be empty")
	}

	if c.Backup.Retention.MaxCount < 0 {
		return fmt.Errorf("backup: max_count must be non-negative, got %d", c.Backup.Retention.MaxCount)
	}

	validLevels := map[string]bool{"error": true, "warn": true, "warning": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if c.Logging.Format != "" && !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	return nil
}

// applyEnvOverrides applies TRUSTSIM_* environment variables to the config.
func applyEnvOverrides(config *TrustsimConfig) error {
	var ov envOverrides
	if err := env.ParseWithOptions(&ov, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	if ov.LogLevel != nil {
		config.Logging.Level = *ov.LogLevel
	}
	if ov.LogFormat != nil {
		config.Logging.Format = *ov.LogFormat
	}
	if ov.DB != nil {
		config.Store.Path = expandHome(*ov.DB)
	}
	if ov.Workers != nil {
		config.Sweep.Workers = *ov.Workers
	}

	// Population and run length apply to both single runs and sweeps.
	if ov.Citizens != nil {
		config.Model.NumCitizens = *ov.Citizens
		config.Sweep.NumCitizens = *ov.Citizens
	}
	if ov.Brokers != nil {
		config.Model.NumBrokers = *ov.Brokers
		config.Sweep.NumBrokers = *ov.Brokers
	}
	if ov.Steps != nil {
		config.Model.Steps = *ov.Steps
		config.Sweep.Steps = *ov.Steps
	}
	if ov.Seed != nil {
		config.Model.Seed = *ov.Seed
	}
	if ov.Trust != nil {
		config.Model.InitialTrust = *ov.Trust
	}

	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
