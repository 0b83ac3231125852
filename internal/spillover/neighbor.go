package spillover

import (
	"github.com/JaneXU85/pension-trust-abm/internal/constants"
	"github.com/JaneXU85/pension-trust-abm/internal/models"
	"github.com/JaneXU85/pension-trust-abm/internal/rng"
)

// Neighbor samples floor(n*fraction) of the punished broker's n citizens
// without replacement and sets their trust to zero. At least one citizen is
// affected whenever the fraction is positive and the broker has citizens.
// Citizens of other brokers are untouched.
type Neighbor struct{}

// Apply implements Rule.
func (Neighbor) Apply(ev Event, citizens []*models.Citizen, src rng.Source) int {
	var affected []*models.Citizen
	for _, c := range citizens {
		if c.BrokerID == ev.BrokerID {
			affected = append(affected, c)
		}
	}
	if len(affected) == 0 {
		return 0
	}

	k := AffectedCount(len(affected), ev.Fraction)
	if k == 0 {
		return 0
	}

	// Partial Fisher-Yates: the first k slots end up holding the sample.
	for i := 0; i < k; i++ {
		j := i + src.Intn(len(affected)-i)
		affected[i], affected[j] = affected[j], affected[i]
	}

	hit := 0
	for _, c := range affected[:k] {
		if c.Trust > 0 {
			hit++
		}
		c.Trust = 0
	}
	return hit
}

// Mode implements Rule.
func (Neighbor) Mode() constants.SpilloverMode {
	return constants.SpilloverNeighbor
}

// AffectedCount returns how many of n connected citizens a punishment with
// the given fraction reaches.
func AffectedCount(n int, fraction float64) int {
	if n <= 0 || fraction <= 0 {
		return 0
	}
	k := int(float64(n) * fraction)
	if k == 0 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}
