package kweight_test

import (
	"testing"

	"github.com/galewave/loudgate/internal/dsp/kweight"
)

// The pre-filter and RLB sections must each be stable (all poles inside
// the unit circle) at common sample rates, and the RLB high-pass must
// block DC (zero DC gain).
func TestFiltersStableAndRLBBlocksDC(t *testing.T) {
	for _, rate := range []int{44100, 48000, 96000, 192000} {
		pre, rlb := kweight.Filters(rate)

		for name, c := range map[string]struct{ b0, b1, b2, a1, a2 float64 }{
			"pre": {pre.B0, pre.B1, pre.B2, pre.A1, pre.A2},
			"rlb": {rlb.B0, rlb.B1, rlb.B2, rlb.A1, rlb.A2},
		} {
			if c.a1 >= 2 || c.a1 <= -2 {
				t.Errorf("rate=%d %s: a1=%v looks unstable", rate, name, c.a1)
			}
		}

		rlbDCGain := (rlb.B0 + rlb.B1 + rlb.B2) / (1 + rlb.A1 + rlb.A2)
		if rlbDCGain > 1e-6 || rlbDCGain < -1e-6 {
			t.Errorf("rate=%d: rlb DC gain = %v, want ~0 (high-pass)", rate, rlbDCGain)
		}
	}
}

func TestChannelWeight(t *testing.T) {
	if w := kweight.ChannelWeight(0, 2); w != 1.0 {
		t.Errorf("stereo channel 0: got %v, want 1.0", w)
	}

	if w := kweight.ChannelWeight(3, 6); w != 0.0 {
		t.Errorf("5.1 LFE channel: got %v, want 0.0", w)
	}

	if w := kweight.ChannelWeight(4, 6); w != 1.41 {
		t.Errorf("5.1 left-surround channel: got %v, want 1.41", w)
	}

	if w := kweight.ChannelWeight(5, 6); w != 1.41 {
		t.Errorf("5.1 right-surround channel: got %v, want 1.41", w)
	}

	if w := kweight.ChannelWeight(0, 6); w != 1.0 {
		t.Errorf("5.1 front-left channel: got %v, want 1.0", w)
	}

	if w := kweight.ChannelWeight(0, 5); w != 1.0 {
		t.Errorf("non-5.1 5-channel layout: got %v, want all-ones (1.0)", w)
	}
}
