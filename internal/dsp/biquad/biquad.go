// Package biquad implements a Direct-Form II Transposed biquad filter
// section, the building block of the K-weighting filter pair.
package biquad

// Coeffs holds the five normalized coefficients of a second-order IIR
// section (a0 is always 1 after normalization).
type Coeffs struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// State holds the two delay-line registers of one channel's filter
// instance. Each channel processed independently must use its own State.
type State struct {
	Z1, Z2 float64
}

// Process runs one sample through the section in Direct-Form II
// Transposed and updates s in place.
func Process(c Coeffs, s *State, x float64) float64 {
	y := c.B0*x + s.Z1

	s.Z1 = c.B1*x - c.A1*y + s.Z2
	s.Z2 = c.B2*x - c.A2*y

	return y
}

// Reset zeroes the delay-line registers.
func (s *State) Reset() {
	s.Z1 = 0
	s.Z2 = 0
}
