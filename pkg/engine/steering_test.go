package engine

import (
	"math"
	"math/rand"
	"testing"
)

func TestNextHeading_KeepsHeadingWhenForwardDominates(t *testing.T) {
	field := NewPheromoneField(50, 50, 0.97, 1.0)
	// Deposit only straight ahead of (25,25) along heading 0.
	field.Deposit(25, 34, 100)

	rng := rand.New(rand.NewSource(1))
	got := NextHeading(field, 25, 25, 0, math.Pi/4, 9, math.Pi/6, rng)
	if got != 0 {
		t.Errorf("NextHeading = %v; want 0 (forward scent should dominate via forwardBias)", got)
	}
}

func TestNextHeading_TurnsTowardStrongerSide(t *testing.T) {
	field := NewPheromoneField(50, 50, 0.97, 1.0)
	// Strong scent to one side, nothing ahead or on the other side.
	angle := math.Pi / 4
	sr := 25 + int(math.Round(math.Sin(angle)*9))
	sc := 25 + int(math.Round(math.Cos(angle)*9))
	field.Deposit(sr, sc, 100)

	rng := rand.New(rand.NewSource(1))
	rotation := math.Pi / 6
	got := NextHeading(field, 25, 25, 0, angle, 9, rotation, rng)
	want := rotation
	if got != want {
		t.Errorf("NextHeading = %v; want heading rotated toward the right sensor: %v", got, want)
	}
}

func TestNextHeading_RandomWhenAllEqual(t *testing.T) {
	field := NewPheromoneField(50, 50, 0.97, 1.0)
	// Equal scent under both side sensors, nothing ahead: neither side
	// wins and the boosted forward reading loses, so the random
	// fallback is taken.
	field.Deposit(19, 31, 100)
	field.Deposit(31, 31, 100)
	rng := rand.New(rand.NewSource(42))
	got := NextHeading(field, 25, 25, 0, math.Pi/4, 9, math.Pi/6, rng)
	if got < 0 || got > 2*math.Pi {
		t.Errorf("NextHeading random fallback out of [0, 2pi]: %v", got)
	}
}
