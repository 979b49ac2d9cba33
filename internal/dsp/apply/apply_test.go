package apply_test

import (
	"math"
	"testing"

	"github.com/galewave/loudgate/internal/dsp/apply"
	"github.com/galewave/loudgate/internal/pcm"
)

func TestScalar(t *testing.T) {
	buf, _ := pcm.New([]float32{0.1, -0.2, 0.3, -0.4}, 48000, 2)

	apply.Scalar(buf, 2.0)

	want := []float32{0.2, -0.4, 0.6, -0.8}
	for i, s := range buf.Samples {
		if math.Abs(float64(s-want[i])) > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, s, want[i])
		}
	}
}

// Envelope gain must be continuous (no discontinuity) across a frame
// boundary: the gain applied at the last sample of frame i should match
// the gain applied at the first sample of frame i+1 to within the
// interpolation step.
func TestEnvelopeContinuousAcrossBoundary(t *testing.T) {
	frameSamples := 4
	final := []float64{1.0, 2.0, 1.0}

	samples := make([]float32, frameSamples*len(final))
	for i := range samples {
		samples[i] = 1.0
	}

	buf, _ := pcm.New(samples, 48000, 1)

	apply.Envelope(buf, final, frameSamples)

	boundary := frameSamples // first sample of frame 1
	before := buf.Samples[boundary-1]
	after := buf.Samples[boundary]

	if math.Abs(float64(after-before)) > 0.3 {
		t.Errorf("discontinuity at frame boundary: before=%v after=%v", before, after)
	}
}

func TestEnvelopeFirstAndLastFrameGain(t *testing.T) {
	frameSamples := 2
	final := []float64{1.0, 3.0}

	buf, _ := pcm.New([]float32{1, 1, 1, 1}, 48000, 1)

	apply.Envelope(buf, final, frameSamples)

	if math.Abs(float64(buf.Samples[0])-1.0) > 1e-6 {
		t.Errorf("first sample gain = %v, want ~1.0", buf.Samples[0])
	}

	if math.Abs(float64(buf.Samples[3])-3.0) > 1e-6 {
		t.Errorf("last sample gain = %v, want ~3.0", buf.Samples[3])
	}
}
