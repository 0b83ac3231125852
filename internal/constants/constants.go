// Package constants provides named constants used throughout the trust simulation.
// This centralizes the model's tunables so the engine, config, and CLI agree on them.
package constants

// Trust dynamics constants
const (
	// DefaultTrustDecrement is the trust lost by a citizen hit by spillover.
	DefaultTrustDecrement = 0.1

	// ParticipationThreshold is the trust level below which a citizen stops
	// participating. Dropping out is permanent.
	ParticipationThreshold = 0.2

	// MinTrust and MaxTrust bound every citizen's trust value.
	MinTrust = 0.0
	MaxTrust = 1.0
)

// Population defaults
const (
	// DefaultNumCitizens is the population size used by the reference experiment.
	DefaultNumCitizens = 100

	// DefaultNumBrokers is the broker count used by the reference experiment.
	DefaultNumBrokers = 5

	// DefaultInitialTrust is the starting trust of every citizen.
	DefaultInitialTrust = 0.5

	// DefaultSpilloverFraction is the fraction applied when spillover is enabled
	// without an explicit value.
	DefaultSpilloverFraction = 1.0
)

// Run defaults
const (
	// DefaultSteps is the number of steps in a single run.
	DefaultSteps = 50

	// DefaultSeed is the seed used when none is given.
	DefaultSeed = 42

	// DefaultSeedBase is added to the run id to derive each sweep run's seed.
	DefaultSeedBase = 42

	// DefaultReplications is the number of replications per sweep condition.
	DefaultReplications = 30
)

// Sweep condition labels used by the reference experiment.
const (
	LabelNoSpillover      = "No Spillover"
	LabelPartialSpillover = "Partial Spillover"
	LabelFullSpillover    = "Full Spillover"
)
