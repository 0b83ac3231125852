// Package spillover implements the trust degradation rules applied after a
// broker is punished. A punishment event spreads beyond the broker: citizens
// read the news and lose trust in the pension system as a whole.
//
// Two rules exist because published variants of the model disagree:
//
//   - Fixed: every citizen draws once; with probability equal to the
//     spillover fraction their trust drops by a fixed decrement.
//   - Neighbor: a fraction of the punished broker's own citizens is sampled
//     and their trust collapses to zero.
package spillover

import (
	"fmt"

	"github.com/JaneXU85/pension-trust-abm/internal/constants"
	"github.com/JaneXU85/pension-trust-abm/internal/models"
	"github.com/JaneXU85/pension-trust-abm/internal/rng"
)

// Event describes a single punishment.
type Event struct {
	// Step is the step at which the punishment happened (1-based).
	Step int

	// BrokerID is the punished broker.
	BrokerID int

	// Fraction is the spillover fraction (0.0-1.0).
	Fraction float64
}

// Rule applies a punishment event to the population.
type Rule interface {
	// Apply mutates citizen trust in place and returns how many citizens
	// lost trust. Implementations must leave trust inside [0, 1].
	Apply(ev Event, citizens []*models.Citizen, src rng.Source) int

	// Mode identifies the rule.
	Mode() constants.SpilloverMode
}

// ForMode builds the rule for the given mode. An empty mode selects Fixed.
func ForMode(mode constants.SpilloverMode, decrement float64) (Rule, error) {
	switch mode {
	case "", constants.SpilloverFixed:
		return Fixed{Decrement: decrement}, nil
	case constants.SpilloverNeighbor:
		return Neighbor{}, nil
	default:
		return nil, fmt.Errorf("unknown spillover mode: %s", mode)
	}
}
