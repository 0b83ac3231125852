package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/JaneXU85/pension-trust-abm/internal/constants"
)

// ErrInvalidConfig is returned for malformed simulation parameters.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Params holds the scalar configuration of a single simulation run.
type Params struct {
	NumCitizens       int                     `json:"num_citizens" yaml:"num_citizens"`
	NumBrokers        int                     `json:"num_brokers" yaml:"num_brokers"`
	InitialTrust      float64                 `json:"initial_trust" yaml:"initial_trust"`
	SpilloverEnabled  bool                    `json:"spillover_enabled" yaml:"spillover_enabled"`
	SpilloverFraction float64                 `json:"spillover_fraction" yaml:"spillover_fraction"`
	SpilloverMode     constants.SpilloverMode `json:"spillover_mode" yaml:"spillover_mode"`

	// TrustDecrement is the trust lost per spillover hit in fixed mode.
	TrustDecrement float64 `json:"trust_decrement" yaml:"trust_decrement"`

	// ParticipationThreshold is the trust below which citizens drop out.
	ParticipationThreshold float64 `json:"participation_threshold" yaml:"participation_threshold"`

	Steps int   `json:"steps" yaml:"steps"`
	Seed  int64 `json:"seed" yaml:"seed"`
}

// DefaultParams returns the parameters of the reference model.
func DefaultParams() Params {
	return Params{
		NumCitizens:            constants.DefaultNumCitizens,
		NumBrokers:             constants.DefaultNumBrokers,
		InitialTrust:           constants.DefaultInitialTrust,
		SpilloverEnabled:       false,
		SpilloverFraction:      constants.DefaultSpilloverFraction,
		SpilloverMode:          constants.SpilloverFixed,
		TrustDecrement:         constants.DefaultTrustDecrement,
		ParticipationThreshold: constants.ParticipationThreshold,
		Steps:                  constants.DefaultSteps,
		Seed:                   constants.DefaultSeed,
	}
}

// Validate checks the parameters. Errors wrap ErrInvalidConfig.
func (p Params) Validate() error {
	if p.NumCitizens < 0 {
		return fmt.Errorf("%w: num_citizens must be non-negative, got %d", ErrInvalidConfig, p.NumCitizens)
	}
	if p.NumBrokers <= 0 {
		return fmt.Errorf("%w: num_brokers must be positive, got %d", ErrInvalidConfig, p.NumBrokers)
	}
	if !inUnitRange(p.InitialTrust) {
		return fmt.Errorf("%w: initial_trust must be between 0 and 1, got %v", ErrInvalidConfig, p.InitialTrust)
	}
	if !inUnitRange(p.SpilloverFraction) {
		return fmt.Errorf("%w: spillover_fraction must be between 0 and 1, got %v", ErrInvalidConfig, p.SpilloverFraction)
	}
	if !inUnitRange(p.TrustDecrement) {
		return fmt.Errorf("%w: trust_decrement must be between 0 and 1, got %v", ErrInvalidConfig, p.TrustDecrement)
	}
	if !inUnitRange(p.ParticipationThreshold) {
		return fmt.Errorf("%w: participation_threshold must be between 0 and 1, got %v", ErrInvalidConfig, p.ParticipationThreshold)
	}
	if p.SpilloverMode != "" && !p.SpilloverMode.Valid() {
		return fmt.Errorf("%w: invalid spillover_mode: %s (valid: fixed, neighbor)", ErrInvalidConfig, p.SpilloverMode)
	}
	if p.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidConfig, p.Steps)
	}
	return nil
}

// Normalized returns a copy with the spillover fraction clamped and empty
// fields filled from the defaults.
func (p Params) Normalized() Params {
	if math.IsNaN(p.SpilloverFraction) {
		p.SpilloverFraction = 0
	}
	p.SpilloverFraction = Clamp01(p.SpilloverFraction)
	if p.SpilloverMode == "" {
		p.SpilloverMode = constants.SpilloverFixed
	}
	return p
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
