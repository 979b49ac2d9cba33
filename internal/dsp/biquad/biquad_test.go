package biquad_test

import (
	"math"
	"testing"

	"github.com/galewave/loudgate/internal/dsp/biquad"
)

// An identity section (b0=1, everything else 0) must pass samples through
// unchanged and never accumulate state.
func TestProcessIdentity(t *testing.T) {
	c := biquad.Coeffs{B0: 1}

	var s biquad.State

	for _, x := range []float64{0, 1, -1, 0.5, -0.25} {
		y := biquad.Process(c, &s, x)
		if y != x {
			t.Fatalf("identity section: got %v, want %v", y, x)
		}
	}

	if s.Z1 != 0 || s.Z2 != 0 {
		t.Fatalf("identity section should not accumulate state, got z1=%v z2=%v", s.Z1, s.Z2)
	}
}

// A DC input should converge to the section's DC gain,
// (b0+b1+b2)/(1+a1+a2), at steady state (10 for these coefficients).
func TestProcessDCGain(t *testing.T) {
	c := biquad.Coeffs{B0: 0.5, B1: 0.5, A1: -0.9}

	var s biquad.State

	var y float64
	for range 1000 {
		y = biquad.Process(c, &s, 1.0)
	}

	dcGain := (c.B0 + c.B1 + c.B2) / (1 + c.A1 + c.A2)
	if math.Abs(y-dcGain) > 1e-6 {
		t.Fatalf("steady-state output %v, want dc gain %v", y, dcGain)
	}
}

func TestReset(t *testing.T) {
	s := biquad.State{Z1: 1, Z2: 2}

	s.Reset()

	if s.Z1 != 0 || s.Z2 != 0 {
		t.Fatalf("Reset left nonzero state: %+v", s)
	}
}
