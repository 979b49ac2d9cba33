package loudgate

import (
	"fmt"
	"io"
	"math"

	"github.com/galewave/loudgate/internal/dsp/apply"
	"github.com/galewave/loudgate/internal/dsp/dynamics"
	"github.com/galewave/loudgate/internal/dsp/gainsolver"
	"github.com/galewave/loudgate/internal/dsp/loudness"
	"github.com/galewave/loudgate/internal/dsp/truepeak"
	"github.com/galewave/loudgate/internal/dsperr"
	"github.com/galewave/loudgate/internal/pcm"
)

// Analyze decodes a full PCM stream into memory, measures it, solves (or
// computes) the gain required by method, and returns the aggregate
// analysis. It does not modify buf's source; call ApplyGain separately
// to rewrite a decoded Buffer in place.
func Analyze(r io.Reader, format pcm.Format, method Method) (*AudioAnalysis, error) {
	buf, err := pcm.Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dsperr.ErrProcessingFailed, err)
	}

	return AnalyzeBuffer(buf, method)
}

// AnalyzeBuffer runs the measurement and solve stages over an
// already-decoded buffer.
func AnalyzeBuffer(buf *pcm.Buffer, method Method) (*AudioAnalysis, error) {
	if buf.Frames() == 0 {
		return nil, fmt.Errorf("%w: empty buffer", dsperr.ErrInvalidInput)
	}

	stats := pcm.Stats(buf)

	channels := make([]ChannelStats, buf.Channels)

	var peakDB, rmsDB float64 = gainsolver.LinearToDB(0), gainsolver.LinearToDB(0)

	for c := range buf.Channels {
		channels[c] = ChannelStats{
			PeakDB: gainsolver.LinearToDB(stats.Peak[c]),
			RMSdB:  gainsolver.LinearToDB(stats.RMS(c)),
		}

		if channels[c].PeakDB > peakDB {
			peakDB = channels[c].PeakDB
		}

		if channels[c].RMSdB > rmsDB {
			rmsDB = channels[c].RMSdB
		}
	}

	loudnessResult := loudness.Measure(buf)
	truePeakResult := truepeak.Detect(buf, truepeak.Accurate)

	analysis := &AudioAnalysis{
		PeakDB:         peakDB,
		RMSdB:          rmsDB,
		Channels:       channels,
		IntegratedLUFS: loudnessResult.IntegratedLUFS,
		TruePeakDB:     truePeakResult.TruePeakDB,
		TruePeakLinear: truePeakResult.TruePeakLinear,
	}

	if loudnessResult.Frames >= uint64(buf.SampleRate*3) {
		shortTerm := loudnessResult.ShortTermMax
		analysis.ShortTermLUFS = &shortTerm
	}

	if loudnessResult.HasLoudnessRange {
		lra := loudnessResult.LoudnessRange
		analysis.LoudnessRange = &lra
	}

	switch m := method.(type) {
	case PeakMethod:
		gainDB, gainLinear := gainsolver.Solve(gainsolver.Peak, gainsolver.Input{PeakDB: peakDB},
			gainsolver.Target{TargetDB: m.TargetDB})
		analysis.RequiredGainDB = gainDB
		analysis.RequiredGain = gainLinear
		analysis.Preview = previewStatic("peak", analysis, gainDB, m.TargetDB, false)

	case RMSMethod:
		gainDB, gainLinear := gainsolver.Solve(gainsolver.RMS, gainsolver.Input{PeakDB: peakDB, RMSDB: rmsDB},
			gainsolver.Target{TargetDB: m.TargetDB})
		analysis.RequiredGainDB = gainDB
		analysis.RequiredGain = gainLinear
		analysis.Preview = previewStatic("rms", analysis, gainDB, m.TargetDB, true)

	case LUFSMethod:
		integrated := loudnessResult.IntegratedLUFS
		if math.IsInf(peakDB, -1) {
			// Pure silence: the meter reports its floor rather than -Inf,
			// so pass -Inf on to reach the solver's unit-gain case.
			integrated = math.Inf(-1)
		}

		gainDB, gainLinear := gainsolver.Solve(gainsolver.LUFS, gainsolver.Input{
			IntegratedLUFS: integrated,
			TruePeakDB:     truePeakResult.TruePeakDB,
		}, gainsolver.Target{TargetLUFS: m.TargetLUFS, TruePeakCeiling: m.TruePeakLimitDB})
		analysis.RequiredGainDB = gainDB
		analysis.RequiredGain = gainLinear
		analysis.Preview = previewLUFS(analysis, gainDB, m.TruePeakLimitDB)

	case DynamicMethod:
		dynResult := dynamics.Normalize(buf, m.Config)
		analysis.Dynamic = &dynResult
		analysis.RequiredGainDB = avgGainDB(dynResult.Final)
		analysis.RequiredGain = gainsolver.DBToLinear(analysis.RequiredGainDB)
		analysis.Preview = previewDynamic(analysis, dynResult, m.Config)
	}

	return analysis, nil
}

// ApplyGain rewrites buf in place per analysis: a scalar multiply for
// the static methods, or the interpolated envelope for Dynamic.
func ApplyGain(buf *pcm.Buffer, analysis *AudioAnalysis) {
	if analysis.Dynamic != nil {
		apply.Envelope(buf, analysis.Dynamic.Final, analysis.Dynamic.FrameSamples)

		return
	}

	apply.Scalar(buf, analysis.RequiredGain)
}

// previewStatic composes the before/after Preview for the Peak and RMS
// methods per spec §4.8's table: the targeted metric reports the target
// itself (exact, even when a clamp made the applied gain fall short of
// the naive target-minus-measured delta), while the other metric reports
// the computed measured+gain value.
func previewStatic(method string, a *AudioAnalysis, gainDB, targetDB float64, targetIsRMS bool) Preview {
	afterPeakDB := a.PeakDB + gainDB
	afterRMSdB := a.RMSdB + gainDB

	if targetIsRMS {
		afterRMSdB = targetDB
	} else {
		afterPeakDB = targetDB
	}

	return Preview{
		Method:        method,
		BeforePeakDB:  a.PeakDB,
		BeforeRMSdB:   a.RMSdB,
		AfterPeakDB:   afterPeakDB,
		AfterRMSdB:    afterRMSdB,
		AppliedGainDB: gainDB,
	}
}

func previewLUFS(a *AudioAnalysis, gainDB, ceilingDB float64) Preview {
	afterTP := a.TruePeakDB + gainDB
	if afterTP > ceilingDB {
		afterTP = ceilingDB
	}

	afterLUFS := a.IntegratedLUFS + gainDB

	return Preview{
		Method:          "lufs",
		BeforePeakDB:    a.PeakDB,
		BeforeRMSdB:     a.RMSdB,
		AfterPeakDB:     a.PeakDB + gainDB,
		AfterRMSdB:      a.RMSdB + gainDB,
		AfterLUFS:       &afterLUFS,
		AfterTruePeakDB: &afterTP,
		AppliedGainDB:   gainDB,
	}
}

func previewDynamic(a *AudioAnalysis, result dynamics.Result, cfg dynamics.Config) Preview {
	return Preview{
		Method:           "dynamic",
		BeforePeakDB:     a.PeakDB,
		BeforeRMSdB:      a.RMSdB,
		AfterPeakDB:      a.PeakDB + a.RequiredGainDB,
		AfterRMSdB:       cfg.TargetRMSdB,
		AppliedGainDB:    a.RequiredGainDB,
		ProblemSpotCount: len(result.ProblemSpots),
	}
}

func avgGainDB(final []float64) float64 {
	if len(final) == 0 {
		return 0
	}

	var sum float64

	for _, g := range final {
		sum += gainsolver.LinearToDB(g)
	}

	return sum / float64(len(final))
}
