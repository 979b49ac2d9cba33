// Package kweight builds the ITU-R BS.1770-4 K-weighting filter pair: a
// high-shelf pre-filter modelling head acoustics, followed by an RLB
// (revised low-frequency B) high-pass.
package kweight

import (
	"math"

	"github.com/galewave/loudgate/internal/dsp/biquad"
)

// Filters derives the pre-filter and RLB-filter coefficients for
// sampleRate by bilinear-transforming the BS.1770-4 analog prototypes.
// The center frequencies, Q factors and shelf gain below are the
// standard's published constants, not tunables.
func Filters(sampleRate int) (pre, rlb biquad.Coeffs) {
	rate := float64(sampleRate)

	const (
		preCenterFreq = 1681.974450955533
		preGainDB     = 3.999843853973347
		preQ          = 0.7071752369554196

		rlbCenterFreq = 38.13547087602444
		rlbQ          = 0.5003270373238773
	)

	k := math.Tan(math.Pi * preCenterFreq / rate)
	vh := math.Pow(10, preGainDB/20)
	vb := math.Pow(vh, 0.4996667741545416)

	gain := 1 + k/preQ + k*k
	pre.B0 = (vh + vb*k/preQ + k*k) / gain
	pre.B1 = 2 * (k*k - vh) / gain
	pre.B2 = (vh - vb*k/preQ + k*k) / gain
	pre.A1 = 2 * (k*k - 1) / gain
	pre.A2 = (1 - k/preQ + k*k) / gain

	k = math.Tan(math.Pi * rlbCenterFreq / rate)

	gain = 1 + k/rlbQ + k*k
	rlb.B0 = 1 / gain
	rlb.B1 = -2 / gain
	rlb.B2 = 1 / gain
	rlb.A1 = 2 * (k*k - 1) / gain
	rlb.A2 = (1 - k/rlbQ + k*k) / gain

	return pre, rlb
}

// fiveOneWeights is BS.1770-4's explicit 5.1 channel order: L, R, C, LFE,
// Ls, Rs. LFE is excluded from loudness (weight 0.0); the surround pair
// carries +1.5 dB (1.41) to account for their perceived contribution.
var fiveOneWeights = [6]float64{1.0, 1.0, 1.0, 0.0, 1.41, 1.41}

// ChannelWeight returns the BS.1770 channel weighting factor applied
// before summing power across channels: the explicit 5.1 table for a
// 6-channel layout, 1.0 (all-ones) for every other channel count.
func ChannelWeight(channel, numChannels int) float64 {
	if numChannels == 6 && channel >= 0 && channel < 6 {
		return fiveOneWeights[channel]
	}

	return 1.0
}
