package spillover

import (
	"github.com/JaneXU85/pension-trust-abm/internal/constants"
	"github.com/JaneXU85/pension-trust-abm/internal/models"
	"github.com/JaneXU85/pension-trust-abm/internal/rng"
)

// Fixed subtracts Decrement from a citizen's trust with probability equal to
// the event fraction. Exactly one float is drawn per citizen, in slice order,
// whatever the outcome.
type Fixed struct {
	Decrement float64
}

// Apply implements Rule.
func (f Fixed) Apply(ev Event, citizens []*models.Citizen, src rng.Source) int {
	hit := 0
	for _, c := range citizens {
		if src.Float64() >= ev.Fraction {
			continue
		}
		before := c.Trust
		c.Trust = models.Clamp01(c.Trust - f.Decrement)
		if c.Trust < before {
			hit++
		}
	}
	return hit
}

// Mode implements Rule.
func (f Fixed) Mode() constants.SpilloverMode {
	return constants.SpilloverFixed
}
