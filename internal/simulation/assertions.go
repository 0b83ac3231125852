package simulation

import (
	"testing"

	"github.com/JaneXU85/pension-trust-abm/internal/models"
)

// History is the per-step population state captured by RunWithHistory.
// History[0] is the state before the first step.
type History [][]models.Citizen

// RunWithHistory steps e n times and captures the population after each step.
func RunWithHistory(e *Engine, n int) History {
	h := make(History, 0, n+1)
	h = append(h, e.Citizens())
	for i := 0; i < n; i++ {
		e.Step()
		h = append(h, e.Citizens())
	}
	return h
}

// AssertTrustBounded asserts every citizen's trust stays in [0, 1] at every
// captured step.
func AssertTrustBounded(t *testing.T, h History) {
	t.Helper()
	for step, pop := range h {
		for _, c := range pop {
			if c.Trust < 0 || c.Trust > 1 {
				t.Errorf("AssertTrustBounded: step %d: citizen %d trust %.6f outside [0, 1]", step, c.ID, c.Trust)
			}
		}
	}
}

// AssertParticipationMonotonic asserts no citizen becomes active again after
// dropping out.
func AssertParticipationMonotonic(t *testing.T, h History) {
	t.Helper()
	for step := 1; step < len(h); step++ {
		prev, cur := h[step-1], h[step]
		for i := range cur {
			if !prev[i].Active && cur[i].Active {
				t.Errorf("AssertParticipationMonotonic: step %d: citizen %d reactivated", step, cur[i].ID)
			}
		}
	}
}

// AssertTrustUnchanged asserts no citizen's trust moved across the history.
func AssertTrustUnchanged(t *testing.T, h History) {
	t.Helper()
	if len(h) == 0 {
		return
	}
	for step := 1; step < len(h); step++ {
		for i, c := range h[step] {
			if c.Trust != h[0][i].Trust {
				t.Errorf("AssertTrustUnchanged: step %d: citizen %d trust %.6f, started at %.6f", step, c.ID, c.Trust, h[0][i].Trust)
			}
		}
	}
}

// AssertBelowThresholdInactive asserts that, after every step, each citizen
// under the threshold is inactive.
func AssertBelowThresholdInactive(t *testing.T, h History, threshold float64) {
	t.Helper()
	for step := 1; step < len(h); step++ {
		for _, c := range h[step] {
			if c.Active && c.Trust < threshold {
				t.Errorf("AssertBelowThresholdInactive: step %d: citizen %d active with trust %.6f < %.2f", step, c.ID, c.Trust, threshold)
			}
		}
	}
}
