package models

import (
	"time"

	"github.com/JaneXU85/pension-trust-abm/internal/constants"
)

// Reporters are the aggregate outcomes of a run.
type Reporters struct {
	// MeanTrust is the mean trust across all citizens.
	MeanTrust float64 `json:"mean_trust"`

	// ParticipationRate is the fraction of citizens still active.
	ParticipationRate float64 `json:"participation_rate"`

	// CooperationRate is the fraction of citizens who cooperated in the last step.
	CooperationRate float64 `json:"cooperation_rate"`

	Collapsed    bool `json:"collapsed"`
	CollapseStep int  `json:"collapse_step,omitempty"`
	Steps        int  `json:"steps"`
}

// RunRecord is the per-run output consumed by the results store and exporters.
type RunRecord struct {
	ID            string `json:"id" db:"id"`
	SweepID       string `json:"sweep_id,omitempty" db:"sweep_id"`
	ReplicationID int    `json:"replication_id" db:"replication_id"`
	Label         string `json:"label,omitempty" db:"label"`

	NumCitizens       int                     `json:"num_citizens" db:"num_citizens"`
	NumBrokers        int                     `json:"num_brokers" db:"num_brokers"`
	InitialTrust      float64                 `json:"initial_trust" db:"initial_trust"`
	SpilloverEnabled  bool                    `json:"spillover_enabled" db:"spillover_enabled"`
	SpilloverFraction float64                 `json:"spillover_fraction" db:"spillover_fraction"`
	SpilloverMode     constants.SpilloverMode `json:"spillover_mode" db:"spillover_mode"`
	Steps             int                     `json:"steps" db:"steps"`
	Seed              int64                   `json:"seed" db:"seed"`

	FinalTrust        float64 `json:"final_trust" db:"final_trust"`
	ParticipationRate float64 `json:"participation_rate" db:"participation_rate"`
	FinalCooperation  float64 `json:"final_cooperation" db:"final_cooperation"`
	Collapsed         bool    `json:"collapsed" db:"collapsed"`
	CollapseStep      int     `json:"collapse_step" db:"collapse_step"`

	CreatedAt time.Time `json:"created_at" db:"-"`
}

// NewRunRecord builds a record from the run's parameters and reporters.
func NewRunRecord(id string, p Params, r Reporters) RunRecord {
	return RunRecord{
		ID:                id,
		NumCitizens:       p.NumCitizens,
		NumBrokers:        p.NumBrokers,
		InitialTrust:      p.InitialTrust,
		SpilloverEnabled:  p.SpilloverEnabled,
		SpilloverFraction: p.SpilloverFraction,
		SpilloverMode:     p.SpilloverMode,
		Steps:             r.Steps,
		Seed:              p.Seed,
		FinalTrust:        r.MeanTrust,
		ParticipationRate: r.ParticipationRate,
		FinalCooperation:  r.CooperationRate,
		Collapsed:         r.Collapsed,
		CollapseStep:      r.CollapseStep,
		CreatedAt:         time.Now().UTC(),
	}
}
