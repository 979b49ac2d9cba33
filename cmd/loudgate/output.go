//nolint:wrapcheck
package main

import (
	"fmt"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/galewave/loudgate"
	"github.com/galewave/loudgate/internal/output"
)

func outputAnalysis(objectName string, analysis *loudgate.AudioAnalysis, formatName string, debug bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	var meta map[string]any
	if debug {
		meta = output.AnalysisToMap(analysis)
	} else {
		meta = buildFriendlyOutput(analysis)
	}

	data := &format.Data{
		Object: objectName,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

// buildFriendlyOutput creates a human-readable summary of the analysis.
func buildFriendlyOutput(a *loudgate.AudioAnalysis) map[string]any {
	meta := map[string]any{
		"summary": fmt.Sprintf(
			"%.1f LUFS, peak %.1fdBFS, true peak %.1fdBTP — %s gain %.2fdB",
			a.IntegratedLUFS, a.PeakDB, a.TruePeakDB, a.Preview.Method, a.Preview.AppliedGainDB,
		),
	}

	props := map[string]any{
		"peak_db":          fmt.Sprintf("%.2f dBFS", a.PeakDB),
		"rms_db":           fmt.Sprintf("%.2f dBFS", a.RMSdB),
		"integrated_lufs":  fmt.Sprintf("%.2f LUFS", a.IntegratedLUFS),
		"true_peak_db":     fmt.Sprintf("%.2f dBTP", a.TruePeakDB),
		"required_gain_db": fmt.Sprintf("%.2f dB", a.RequiredGainDB),
	}

	if a.LoudnessRange != nil {
		props["loudness_range"] = fmt.Sprintf("%.1f LU", *a.LoudnessRange)
	}

	if a.Dynamic != nil {
		props["problem_spots"] = len(a.Dynamic.ProblemSpots)
	}

	meta["properties"] = props

	return meta
}
