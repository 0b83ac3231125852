// Package models defines the agents and records of the pension trust simulation.
package models

// Citizen is a member of the population who contributes to the pension fund
// through an assigned broker.
type Citizen struct {
	// ID is unique across citizens. IDs follow broker ids, so the first
	// citizen of a model with 5 brokers has ID 5.
	ID int `json:"id"`

	// BrokerID references the broker this citizen is assigned to.
	BrokerID int `json:"broker_id"`

	// Trust is the citizen's trust in the pension system (0.0-1.0).
	Trust float64 `json:"trust"`

	// Active is false once the citizen has stopped participating.
	Active bool `json:"active"`

	// Cooperated records the citizen's contribution decision in the last step.
	Cooperated bool `json:"cooperated"`

	// InactiveSince is the step at which the citizen dropped out, 0 while active.
	InactiveSince int `json:"inactive_since,omitempty"`
}

// ClampTrust bounds the citizen's trust to [0, 1].
func (c *Citizen) ClampTrust() {
	c.Trust = Clamp01(c.Trust)
}

// Deactivate marks the citizen inactive at the given step. Already inactive
// citizens keep their original drop-out step.
func (c *Citizen) Deactivate(step int) {
	if !c.Active {
		return
	}
	c.Active = false
	c.Cooperated = false
	c.InactiveSince = step
}

// Broker is a pension fund broker who may be caught acting opportunistically.
type Broker struct {
	ID int `json:"id"`

	// Misconduct is set when the broker is punished in the current step.
	Misconduct bool `json:"misconduct"`

	// Punishments counts how many steps selected this broker.
	Punishments int `json:"punishments"`
}

// Punish marks misconduct for the current step.
func (b *Broker) Punish() {
	b.Misconduct = true
	b.Punishments++
}

// Reset clears the per-step misconduct flag.
func (b *Broker) Reset() {
	b.Misconduct = false
}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
