package loudgate

import "github.com/galewave/loudgate/internal/dsp/dynamics"

// Method is the sealed set of normalization strategies a caller may
// request from Analyze. Build one with Peak, RMS, LUFS or Dynamic.
type Method interface {
	isMethod()
}

// PeakMethod targets a sample-peak dBFS value directly.
type PeakMethod struct {
	TargetDB float64
}

func (PeakMethod) isMethod() {}

// Peak builds a PeakMethod, defaulting targetDB to -0.1 dBFS when 0.
func Peak(targetDB float64) PeakMethod {
	if targetDB == 0 {
		targetDB = -0.1
	}

	return PeakMethod{TargetDB: targetDB}
}

// RMSMethod targets an RMS dBFS value, clamped against intrinsic clip.
type RMSMethod struct {
	TargetDB float64
}

func (RMSMethod) isMethod() {}

// RMS builds an RMSMethod, defaulting targetDB to -20 dBFS when 0.
func RMS(targetDB float64) RMSMethod {
	if targetDB == 0 {
		targetDB = -20
	}

	return RMSMethod{TargetDB: targetDB}
}

// LUFSMethod targets an integrated-loudness value, honouring a
// true-peak ceiling.
type LUFSMethod struct {
	TargetLUFS      float64
	TruePeakLimitDB float64
}

func (LUFSMethod) isMethod() {}

// LUFS builds a LUFSMethod, defaulting truePeakLimitDB to -1.0 when 0.
func LUFS(targetLUFS, truePeakLimitDB float64) LUFSMethod {
	if truePeakLimitDB == 0 {
		truePeakLimitDB = -1.0
	}

	return LUFSMethod{TargetLUFS: targetLUFS, TruePeakLimitDB: truePeakLimitDB}
}

// DynamicMethod requests the framewise normalizer with the given config.
type DynamicMethod struct {
	Config dynamics.Config
}

func (DynamicMethod) isMethod() {}

// Dynamic builds a DynamicMethod from a dynamics.Config — see
// dynamics.VoicePreset, dynamics.MeditationPreset, dynamics.MusicPreset.
func Dynamic(cfg dynamics.Config) DynamicMethod {
	return DynamicMethod{Config: cfg}
}

// ChannelStats holds per-channel peak and RMS, both dBFS.
type ChannelStats struct {
	PeakDB float64
	RMSdB  float64
}

// ProblemSpot mirrors dynamics.ProblemSpot at the façade boundary.
type ProblemSpot = dynamics.ProblemSpot

// Preview summarizes what a normalization would do without re-running
// measurement on the output: the method applied, before/after levels,
// the applied gain, and how many problem spots the dynamic path flagged.
type Preview struct {
	Method           string
	BeforePeakDB     float64
	BeforeRMSdB      float64
	AfterPeakDB      float64
	AfterRMSdB       float64
	AfterLUFS        *float64
	AfterTruePeakDB  *float64
	AppliedGainDB    float64
	ProblemSpotCount int
}

// AudioAnalysis is the aggregate result of a full analysis pass: static
// measurements, the solved gain (or dynamic envelope), and a Preview.
type AudioAnalysis struct {
	PeakDB         float64
	RMSdB          float64
	Channels       []ChannelStats
	IntegratedLUFS float64
	ShortTermLUFS  *float64
	LoudnessRange  *float64
	TruePeakDB     float64
	TruePeakLinear float64
	RequiredGainDB float64
	RequiredGain   float64
	Dynamic        *dynamics.Result
	Preview        Preview
}
