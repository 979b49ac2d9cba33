package truepeak_test

import (
	"math"
	"testing"

	"github.com/galewave/loudgate/internal/dsp/truepeak"
	"github.com/galewave/loudgate/internal/pcm"
)

func sineBuffer(amplitude float64, freq, sampleRate, seconds int) *pcm.Buffer {
	n := sampleRate * seconds
	samples := make([]float32, n)

	for i := range n {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*float64(freq)*float64(i)/float64(sampleRate)))
	}

	buf, _ := pcm.New(samples, sampleRate, 1)

	return buf
}

// A sine well below full scale should never register an inter-sample peak.
func TestDetectNoOvershootOnQuietSignal(t *testing.T) {
	buf := sineBuffer(0.5, 997, 48000, 1)

	for _, method := range []truepeak.Method{truepeak.Fast, truepeak.Accurate} {
		result := truepeak.Detect(buf, method)
		if result.ISPCount != 0 {
			t.Errorf("method=%v: ISPCount = %d, want 0", method, result.ISPCount)
		}

		if result.TruePeakDB >= 0 {
			t.Errorf("method=%v: TruePeakDB = %v, want < 0", method, result.TruePeakDB)
		}
	}
}

// True peak must never be lower than the sample peak: oversampled
// interpolation can only reveal inter-sample peaks above the sampled
// maximum, never hide them.
func TestTruePeakAtLeastSamplePeak(t *testing.T) {
	buf := sineBuffer(0.99, 11025, 48000, 1)

	for _, method := range []truepeak.Method{truepeak.Fast, truepeak.Accurate} {
		result := truepeak.Detect(buf, method)
		if result.TruePeakDB < result.SamplePeakDB-1e-6 {
			t.Errorf("method=%v: true peak %v < sample peak %v", method, result.TruePeakDB, result.SamplePeakDB)
		}
	}
}

// Digital silence reports the detector's floor, not -Inf.
func TestDetectSilence(t *testing.T) {
	buf, _ := pcm.New(make([]float32, 48000), 48000, 1)

	result := truepeak.Detect(buf, truepeak.Accurate)
	if result.TruePeakDB != -120 {
		t.Errorf("silence true peak = %v, want -120", result.TruePeakDB)
	}
}
