// Package experiment runs parameter sweeps over the trust model: a grid of
// initial trust levels and spillover conditions, replicated with independent
// seeds, executed in parallel and summarized per condition.
package experiment

import (
	"fmt"

	"github.com/JaneXU85/pension-trust-abm/internal/constants"
	"github.com/JaneXU85/pension-trust-abm/internal/models"
)

// Condition is one spillover treatment of a sweep.
type Condition struct {
	Label    string                  `json:"label" yaml:"label"`
	Enabled  bool                    `json:"enabled" yaml:"enabled"`
	Fraction float64                 `json:"fraction" yaml:"fraction"`
	Mode     constants.SpilloverMode `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// Design describes a full sweep. Every combination of InitialTrust and
// Conditions is run Replications times.
type Design struct {
	InitialTrust []float64  `json:"initial_trust" yaml:"initial_trust"`
	Conditions   []Condition `json:"conditions" yaml:"conditions"`
	Replications int         `json:"replications" yaml:"replications"`
	Steps        int         `json:"steps" yaml:"steps"`
	NumCitizens  int         `json:"num_citizens" yaml:"num_citizens"`
	NumBrokers   int         `json:"num_brokers" yaml:"num_brokers"`

	// SeedBase is added to each run's 1-based id to derive its seed.
	SeedBase int64 `json:"seed_base" yaml:"seed_base"`
}

// DefaultConditions returns the no/partial/full spillover treatments.
func DefaultConditions() []Condition {
	return []Condition{
		{Label: constants.LabelNoSpillover, Enabled: false, Fraction: 0.0},
		{Label: constants.LabelPartialSpillover, Enabled: true, Fraction: 0.5},
		{Label: constants.LabelFullSpillover, Enabled: true, Fraction: 1.0},
	}
}

// DefaultDesign returns the reference experiment: three trust levels, three
// spillover conditions, 30 replications each, 270 runs in total.
func DefaultDesign() Design {
	return Design{
		InitialTrust: []float64{0.3, 0.6, 0.9},
		Conditions:   DefaultConditions(),
		Replications: constants.DefaultReplications,
		Steps:        constants.DefaultSteps,
		NumCitizens:  constants.DefaultNumCitizens,
		NumBrokers:   constants.DefaultNumBrokers,
		SeedBase:     constants.DefaultSeedBase,
	}
}

// Size returns the number of runs the design expands to.
func (d Design) Size() int {
	return len(d.InitialTrust) * len(d.Conditions) * d.Replications
}

// Validate checks the design and every parameter set it expands to.
func (d Design) Validate() error {
	if len(d.InitialTrust) == 0 {
		return fmt.Errorf("%w: sweep needs at least one initial_trust level", models.ErrInvalidConfig)
	}
	if len(d.Conditions) == 0 {
		return fmt.Errorf("%w: sweep needs at least one condition", models.ErrInvalidConfig)
	}
	if d.Replications <= 0 {
		return fmt.Errorf("%w: replications must be positive, got %d", models.ErrInvalidConfig, d.Replications)
	}

	for _, trust := range d.InitialTrust {
		for _, cond := range d.Conditions {
			if err := d.params(trust, cond, 0).Validate(); err != nil {
				return fmt.Errorf("condition %q at initial trust %v: %w", cond.Label, trust, err)
			}
		}
	}
	return nil
}

// Job is a single run of a sweep.
type Job struct {
	// RunID is the 1-based position of the job in the sweep.
	RunID int

	// Replication is the 0-based replication index within its condition.
	Replication int

	Label  string
	Params models.Params
}

// Expand lists the jobs of the design in deterministic order: initial trust
// outermost, then condition, then replication. Job n gets seed SeedBase+n.
func (d Design) Expand() []Job {
	jobs := make([]Job, 0, d.Size())
	runID := 0
	for _, trust := range d.InitialTrust {
		for _, cond := range d.Conditions {
			for rep := 0; rep < d.Replications; rep++ {
				runID++
				jobs = append(jobs, Job{
					RunID:       runID,
					Replication: rep,
					Label:       cond.Label,
					Params:      d.params(trust, cond, d.SeedBase+int64(runID)),
				})
			}
		}
	}
	return jobs
}

func (d Design) params(trust float64, cond Condition, seed int64) models.Params {
	p := models.DefaultParams()
	p.NumCitizens = d.NumCitizens
	p.NumBrokers = d.NumBrokers
	p.InitialTrust = trust
	p.SpilloverEnabled = cond.Enabled
	p.SpilloverFraction = cond.Fraction
	if cond.Mode != "" {
		p.SpilloverMode = cond.Mode
	}
	p.Steps = d.Steps
	p.Seed = seed
	return p
}
