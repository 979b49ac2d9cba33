package loudgate_test

import (
	"math"
	"testing"

	"github.com/galewave/loudgate"
	"github.com/galewave/loudgate/internal/dsp/dynamics"
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

// S1 from the scenario table: a 1kHz sine at amplitude 0.5 should report
// sample peak within 0.1dB of -6.02dBFS.
func TestAnalyzeBufferSineScenario(t *testing.T) {
	buf := sineBuffer(0.5, 1000, 48000, 4)

	analysis, err := loudgate.AnalyzeBuffer(buf, loudgate.Peak(-0.1))
	if err != nil {
		t.Fatalf("AnalyzeBuffer: %v", err)
	}

	if math.Abs(analysis.PeakDB-(-6.02)) > 0.1 {
		t.Errorf("peak = %v, want ~-6.02", analysis.PeakDB)
	}
}

// An all-zero buffer must yield unit gain and an empty problem-spot list
// (S5), never erroring.
func TestAnalyzeBufferSilence(t *testing.T) {
	buf, _ := pcm.New(make([]float32, 48000*2*2), 48000, 2)

	analysis, err := loudgate.AnalyzeBuffer(buf, loudgate.LUFS(-14, -1.0))
	if err != nil {
		t.Fatalf("AnalyzeBuffer: %v", err)
	}

	if analysis.RequiredGain != 1.0 {
		t.Errorf("silence required gain = %v, want 1.0", analysis.RequiredGain)
	}

	if analysis.Preview.BeforePeakDB != analysis.Preview.AfterPeakDB {
		t.Errorf("silence preview before/after peak should match when gain is unity")
	}
}

// ApplyGain with the LUFS method must never push the resulting true peak
// above the configured ceiling.
func TestApplyGainLUFSRespectsTruePeakCeiling(t *testing.T) {
	buf := sineBuffer(0.99, 1000, 48000, 1)

	analysis, err := loudgate.AnalyzeBuffer(buf, loudgate.LUFS(-8, -1.0))
	if err != nil {
		t.Fatalf("AnalyzeBuffer: %v", err)
	}

	loudgate.ApplyGain(buf, analysis)

	afterAnalysis, err := loudgate.AnalyzeBuffer(buf, loudgate.Peak(-0.1))
	if err != nil {
		t.Fatalf("AnalyzeBuffer after apply: %v", err)
	}

	if afterAnalysis.TruePeakDB > -1.0+0.2 {
		t.Errorf("after gain, true peak = %v, want <= ~-1.0", afterAnalysis.TruePeakDB)
	}
}

func TestAnalyzeBufferDynamic(t *testing.T) {
	samples := make([]float32, 48000*10)

	for i := range samples {
		amp := float32(0.03)
		if i > len(samples)/2 {
			amp = 0.3
		}

		if (i/100)%2 == 0 {
			samples[i] = amp
		} else {
			samples[i] = -amp
		}
	}

	buf, _ := pcm.New(samples, 48000, 1)

	analysis, err := loudgate.AnalyzeBuffer(buf, loudgate.Dynamic(dynamics.VoicePreset()))
	if err != nil {
		t.Fatalf("AnalyzeBuffer: %v", err)
	}

	if analysis.Dynamic == nil {
		t.Fatal("expected Dynamic result to be populated")
	}

	if analysis.Preview.ProblemSpotCount != len(analysis.Dynamic.ProblemSpots) {
		t.Errorf("preview problem spot count mismatch")
	}
}
