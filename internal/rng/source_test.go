package rng

import (
	"testing"
)

func TestNew_Deterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("draw %d differs between identically seeded sources", i)
		}
		if a.Intn(7) != b.Intn(7) {
			t.Fatalf("int draw %d differs between identically seeded sources", i)
		}
	}
}

func TestNew_SatisfiesSource(t *testing.T) {
	var _ Source = New(1)
	var _ Source = NewScripted(nil, nil)
}

func TestScripted_Cycles(t *testing.T) {
	s := NewScripted([]float64{0.1, 0.9}, []int{3, 1})

	wantFloats := []float64{0.1, 0.9, 0.1, 0.9}
	for i, want := range wantFloats {
		if got := s.Float64(); got != want {
			t.Errorf("Float64() #%d = %v, want %v", i, got, want)
		}
	}

	wantInts := []int{3, 1, 3}
	for i, want := range wantInts {
		if got := s.Intn(5); got != want {
			t.Errorf("Intn(5) #%d = %d, want %d", i, got, want)
		}
	}

	if s.FloatDraws() != 4 {
		t.Errorf("FloatDraws() = %d, want 4", s.FloatDraws())
	}
	if s.IntDraws() != 3 {
		t.Errorf("IntDraws() = %d, want 3", s.IntDraws())
	}
}

func TestScripted_IntnReducesModulo(t *testing.T) {
	tests := []struct {
		name   string
		script int
		n      int
		want   int
	}{
		{"in range", 2, 5, 2},
		{"wraps", 7, 5, 2},
		{"negative wraps", -1, 5, 4},
		{"exact multiple", 10, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScripted(nil, []int{tt.script})
			if got := s.Intn(tt.n); got != tt.want {
				t.Errorf("Intn(%d) with script %d = %d, want %d", tt.n, tt.script, got, tt.want)
			}
		})
	}
}

func TestScripted_Empty(t *testing.T) {
	s := NewScripted(nil, nil)
	if got := s.Float64(); got != 0 {
		t.Errorf("Float64() = %v, want 0", got)
	}
	if got := s.Intn(3); got != 0 {
		t.Errorf("Intn(3) = %d, want 0", got)
	}
}

func TestScripted_IntnPanicsOnNonPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for Intn(0)")
		}
	}()
	NewScripted(nil, []int{1}).Intn(0)
}

func TestNewSeed(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 10; i++ {
		seed, err := NewSeed()
		if err != nil {
			t.Fatalf("NewSeed() error: %v", err)
		}
		if seed <= 0 {
			t.Errorf("NewSeed() = %d, want positive", seed)
		}
		seen[seed] = true
	}
	if len(seen) < 2 {
		t.Error("expected distinct seeds across calls")
	}
}
