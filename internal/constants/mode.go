package constants

// SpilloverMode selects how a punishment event degrades citizen trust.
type SpilloverMode string

const (
	// SpilloverFixed draws once per citizen and subtracts a fixed decrement
	// with probability equal to the spillover fraction.
	SpilloverFixed SpilloverMode = "fixed"

	// SpilloverNeighbor samples a fraction of the punished broker's citizens
	// and collapses their trust to zero.
	SpilloverNeighbor SpilloverMode = "neighbor"
)

// Valid returns true if the mode is a recognized value.
func (m SpilloverMode) Valid() bool {
	switch m {
	case SpilloverFixed, SpilloverNeighbor:
		return true
	}
	return false
}

// String returns the string representation of the mode.
func (m SpilloverMode) String() string {
	return string(m)
}
