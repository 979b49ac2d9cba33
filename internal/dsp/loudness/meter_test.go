package loudness_test

import (
	"testing"

	"github.com/galewave/loudgate/internal/dsp/loudness"
	"github.com/galewave/loudgate/internal/pcm"
)

// Digital silence must report the meter's floor, never NaN or -Inf from
// log(0).
func TestMeasureSilence(t *testing.T) {
	samples := make([]float32, 48000*2) // 1s stereo of zeros

	buf, err := pcm.New(samples, 48000, 2)
	if err != nil {
		t.Fatalf("pcm.New: %v", err)
	}

	result := loudness.Measure(buf)

	if result.IntegratedLUFS != -120 {
		t.Errorf("silence integrated loudness = %v, want -120", result.IntegratedLUFS)
	}

	if result.HasLoudnessRange {
		t.Errorf("silence LRA should be absent, got %v", result.LoudnessRange)
	}
}

// A steady tone (samples alternating between -0.5 and +0.5 on both
// channels) sustained long enough to fill the gates should
// measure well above the absolute gate and report a near-zero LRA (a
// steady tone has no dynamic range).
func TestMeasureSteadyToneIsLoudAndFlat(t *testing.T) {
	const (
		sampleRate = 48000
		seconds    = 6
	)

	samples := make([]float32, sampleRate*seconds*2)

	for i := 0; i < sampleRate*seconds; i++ {
		v := float32(0.5)
		if i%2 == 0 {
			v = -0.5
		}

		samples[i*2] = v
		samples[i*2+1] = v
	}

	buf, err := pcm.New(samples, sampleRate, 2)
	if err != nil {
		t.Fatalf("pcm.New: %v", err)
	}

	result := loudness.Measure(buf)

	if result.IntegratedLUFS <= -70 {
		t.Errorf("steady tone integrated loudness = %v, want > -70 (above absolute gate)", result.IntegratedLUFS)
	}

	if result.Frames != uint64(sampleRate*seconds) {
		t.Errorf("frames = %d, want %d", result.Frames, sampleRate*seconds)
	}

	if !result.HasLoudnessRange || result.LoudnessRange > 0.1 {
		t.Errorf("steady tone LRA = %v (present=%v), want present and ~0", result.LoudnessRange, result.HasLoudnessRange)
	}
}
