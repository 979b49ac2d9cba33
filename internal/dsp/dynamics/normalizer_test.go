package dynamics_test

import (
	"math"
	"testing"

	"github.com/galewave/loudgate/internal/dsp/dynamics"
	"github.com/galewave/loudgate/internal/pcm"
)

func toneAt(amplitude float64, sampleRate, channels, seconds int) *pcm.Buffer {
	n := sampleRate * seconds * channels
	samples := make([]float32, n)

	for i := range n {
		v := float32(amplitude)
		if (i/channels)%2 == 0 {
			v = -v
		}

		samples[i] = v
	}

	buf, _ := pcm.New(samples, sampleRate, channels)

	return buf
}

// A buffer shorter than two frames must fall back to a degenerate
// unit-gain result instead of erroring.
func TestNormalizeShortInputFallback(t *testing.T) {
	cfg := dynamics.VoicePreset()
	buf, _ := pcm.New(make([]float32, 10), 48000, 1)

	result := dynamics.Normalize(buf, cfg)

	if len(result.ProblemSpots) != 0 {
		t.Errorf("short input should have no problem spots, got %d", len(result.ProblemSpots))
	}

	for i, g := range result.Final {
		if g != 1.0 {
			t.Errorf("frame %d final gain = %v, want 1.0", i, g)
		}
	}
}

// A quiet tone held well above the silence threshold, driven toward the
// preset's target RMS, should gain up once the envelope has stabilized
// away from the smoothing edges.
func TestNormalizeQuietToneGainsUp(t *testing.T) {
	cfg := dynamics.VoicePreset()
	buf := toneAt(0.01, 48000, 1, 10) // ~-40 dBFS, above -50 silence floor

	result := dynamics.Normalize(buf, cfg)

	mid := len(result.Final) / 2
	if result.Final[mid] <= 1.0 {
		t.Errorf("mid-buffer final gain = %v, want > 1.0 (quiet tone should gain up)", result.Final[mid])
	}
}

// Silent frames must always be pinned to unit raw gain regardless of
// target.
func TestNormalizeSilentFramesPinnedToUnitGain(t *testing.T) {
	cfg := dynamics.VoicePreset()
	buf, _ := pcm.New(make([]float32, 48000*2), 48000, 1) // 2s silence

	result := dynamics.Normalize(buf, cfg)

	for i, g := range result.Raw {
		if g != 1.0 {
			t.Errorf("silent frame %d raw gain = %v, want 1.0", i, g)
		}
	}
}

func TestNormalizeNeverExceedsTruePeakCeilingInFinal(t *testing.T) {
	cfg := dynamics.VoicePreset()
	buf := toneAt(0.9, 48000, 1, 5)

	result := dynamics.Normalize(buf, cfg)

	for i, g := range result.Final {
		resultingDB := result.Frames[i].PeakdB + 20*math.Log10(g)
		if resultingDB > cfg.TruePeakLimitDB+0.01 {
			t.Errorf("frame %d resulting peak %v dB exceeds ceiling %v", i, resultingDB, cfg.TruePeakLimitDB)
		}
	}
}
