// Package rng provides the random sources used by the simulation.
//
// The engine only needs two primitives, a uniform float in [0, 1) and a
// uniform integer in [0, n). Source captures them so that tests can replay
// exact sequences while production runs use a seeded math/rand generator.
package rng

import (
	"math/rand"
)

// Source is the random source consumed by the engine and spillover rules.
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// New returns a deterministic source seeded with seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Scripted replays fixed sequences of values. When a sequence is exhausted
// it starts over from the beginning. An empty float sequence yields 0 and an
// empty int sequence yields 0.
//
// Int values are reduced modulo n so a script stays valid for any n.
// Scripted is not safe for concurrent use.
type Scripted struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

// NewScripted creates a Scripted source.
func NewScripted(floats []float64, ints []int) *Scripted {
	return &Scripted{Floats: floats, Ints: ints}
}

// Float64 returns the next scripted float.
func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

// Intn returns the next scripted int reduced modulo n.
func (s *Scripted) Intn(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// FloatDraws reports how many floats have been consumed.
func (s *Scripted) FloatDraws() int {
	return s.fi
}

// IntDraws reports how many ints have been consumed.
func (s *Scripted) IntDraws() int {
	return s.ii
}
