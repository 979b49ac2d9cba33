// Package output provides shared result serialization for loudgate's
// JSON and JSONL output.
package output

import (
	"github.com/galewave/loudgate"
	"github.com/galewave/loudgate/internal/dsp/dynamics"
)

// AnalysisToMap converts an AudioAnalysis into the canonical map
// structure used for JSON and JSONL serialization.
func AnalysisToMap(a *loudgate.AudioAnalysis) map[string]any {
	channels := make([]any, 0, len(a.Channels))
	for i, c := range a.Channels {
		channels = append(channels, map[string]any{
			"channel": i,
			"peak_db": c.PeakDB,
			"rms_db":  c.RMSdB,
		})
	}

	meta := map[string]any{
		"peak_db":          a.PeakDB,
		"rms_db":           a.RMSdB,
		"channels":         channels,
		"integrated_lufs":  a.IntegratedLUFS,
		"true_peak_db":     a.TruePeakDB,
		"true_peak_linear": a.TruePeakLinear,
		"required_gain_db": a.RequiredGainDB,
		"required_gain":    a.RequiredGain,
		"preview":          previewToMap(a.Preview),
	}

	if a.ShortTermLUFS != nil {
		meta["short_term_lufs"] = *a.ShortTermLUFS
	}

	if a.LoudnessRange != nil {
		meta["loudness_range"] = *a.LoudnessRange
	}

	if a.Dynamic != nil {
		meta["dynamic"] = dynamicToMap(a.Dynamic)
	}

	return meta
}

func previewToMap(p loudgate.Preview) map[string]any {
	meta := map[string]any{
		"method":             p.Method,
		"before_peak_db":     p.BeforePeakDB,
		"before_rms_db":      p.BeforeRMSdB,
		"after_peak_db":      p.AfterPeakDB,
		"after_rms_db":       p.AfterRMSdB,
		"applied_gain_db":    p.AppliedGainDB,
		"problem_spot_count": p.ProblemSpotCount,
	}

	if p.AfterLUFS != nil {
		meta["after_lufs"] = *p.AfterLUFS
	}

	if p.AfterTruePeakDB != nil {
		meta["after_true_peak_db"] = *p.AfterTruePeakDB
	}

	return meta
}

func dynamicToMap(d *dynamics.Result) map[string]any {
	spots := make([]any, 0, len(d.ProblemSpots))
	for _, s := range d.ProblemSpots {
		category := "too-loud"
		if s.Category == dynamics.TooQuiet {
			category = "too-quiet"
		}

		spots = append(spots, map[string]any{
			"frame_index":     s.FrameIndex,
			"category":        category,
			"time_seconds":    s.TimeSeconds,
			"original_db":     s.OriginalDB,
			"applied_gain_db": s.AppliedGainDB,
			"resulting_db":    s.ResultingDB,
		})
	}

	return map[string]any{
		"frame_count":   len(d.Frames),
		"problem_spots": spots,
	}
}
