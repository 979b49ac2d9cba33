package gainsolver_test

import (
	"math"
	"testing"

	"github.com/galewave/loudgate/internal/dsp/gainsolver"
)

func TestSolvePeak(t *testing.T) {
	gainDB, gainLinear := gainsolver.Solve(
		gainsolver.Peak,
		gainsolver.Input{PeakDB: -6.02},
		gainsolver.Target{TargetDB: -0.1},
	)

	if math.Abs(gainDB-5.92) > 1e-6 {
		t.Errorf("gainDB = %v, want 5.92", gainDB)
	}

	if math.Abs(gainLinear-1.9772) > 1e-3 {
		t.Errorf("gainLinear = %v, want ~1.977", gainLinear)
	}
}

// The RMS method must never let the resulting peak clip: it clamps to
// intrinsic-clip-guard at -0.1 dBFS even if that undershoots the target.
func TestSolveRMSClampsAgainstClip(t *testing.T) {
	gainDB, _ := gainsolver.Solve(
		gainsolver.RMS,
		gainsolver.Input{PeakDB: -1, RMSDB: -20},
		gainsolver.Target{TargetDB: -6},
	)

	if math.Abs(gainDB-0.9) > 1e-9 {
		t.Errorf("gainDB = %v, want 0.9 (clamped so peak -1+0.9=-0.1)", gainDB)
	}
}

// The LUFS method must never let the resulting true peak exceed the
// ceiling, clamping the requested gain down if necessary.
func TestSolveLUFSClampsAgainstTruePeakCeiling(t *testing.T) {
	gainDB, _ := gainsolver.Solve(
		gainsolver.LUFS,
		gainsolver.Input{IntegratedLUFS: -23, TruePeakDB: 3},
		gainsolver.Target{TargetLUFS: -14, TruePeakCeiling: -1},
	)

	if math.Abs(gainDB-(-4)) > 1e-9 {
		t.Errorf("gainDB = %v, want -4 (clamped so true peak 3-4=-1)", gainDB)
	}
}

func TestSolveSilenceYieldsUnitGain(t *testing.T) {
	for _, method := range []gainsolver.Method{gainsolver.Peak, gainsolver.RMS, gainsolver.LUFS} {
		gainDB, gainLinear := gainsolver.Solve(
			method,
			gainsolver.Input{
				PeakDB:         math.Inf(-1),
				RMSDB:          math.Inf(-1),
				IntegratedLUFS: math.Inf(-1),
			},
			gainsolver.Target{TargetDB: -14, TargetLUFS: -14, TruePeakCeiling: -1},
		)

		if gainDB != 0 || gainLinear != 1 {
			t.Errorf("method=%v on silence: gainDB=%v gainLinear=%v, want 0/1", method, gainDB, gainLinear)
		}
	}
}
