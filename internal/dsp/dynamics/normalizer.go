// Package dynamics implements framewise ("dynamic") normalization for
// material with strongly varying levels: speech, meditation tracks,
// podcasts. It derives a smoothed, peak-limited gain envelope rather
// than the single scalar the static solver produces.
package dynamics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/galewave/loudgate/internal/dsp/gainsolver"
	"github.com/galewave/loudgate/internal/pcm"
)

// Config parametrizes every stage of the normalizer.
type Config struct {
	TargetRMSdB        float64
	FrameDuration      float64 // seconds
	GaussianSize       int     // forced odd
	GaussianSigma      float64
	MaxGainDB          float64
	MinGainDB          float64
	TruePeakLimitDB    float64
	SilenceThresholdDB float64
}

// VoicePreset is tuned for narrated speech: a relatively aggressive
// ±20 dB window and a wide smoothing kernel.
func VoicePreset() Config {
	return Config{
		TargetRMSdB: -20, FrameDuration: 0.5, GaussianSize: 31, GaussianSigma: 7.0,
		MaxGainDB: 20, MinGainDB: -20, TruePeakLimitDB: -1.0, SilenceThresholdDB: -50,
	}
}

// MeditationPreset is tuned for long, very quiet passages: more boost
// (+24 dB) but a gentler cut (-15 dB), and a higher silence threshold
// (-45 dB) so deliberate pauses stay untouched.
func MeditationPreset() Config {
	return Config{
		TargetRMSdB: -18, FrameDuration: 0.4, GaussianSize: 21, GaussianSigma: 5.0,
		MaxGainDB: 24, MinGainDB: -15, TruePeakLimitDB: -1.0, SilenceThresholdDB: -45,
	}
}

// MusicPreset is tuned for music: a narrower gain range, longer frames,
// and heavy smoothing so it doesn't pump with the beat.
func MusicPreset() Config {
	return Config{
		TargetRMSdB: -16, FrameDuration: 1.0, GaussianSize: 41, GaussianSigma: 10.0,
		MaxGainDB: 12, MinGainDB: -12, TruePeakLimitDB: -1.0, SilenceThresholdDB: -60,
	}
}

// SpotCategory classifies a ProblemSpot.
type SpotCategory int

const (
	TooQuiet SpotCategory = iota
	TooLoud
)

// ProblemSpot flags a frame whose applied gain magnitude exceeds the
// 6 dB diagnostic threshold.
type ProblemSpot struct {
	FrameIndex    int
	Category      SpotCategory
	TimeSeconds   float64
	OriginalDB    float64
	AppliedGainDB float64
	ResultingDB   float64
}

// FrameRecord holds the raw measurements for one frame, before any gain
// is computed.
type FrameRecord struct {
	RMSdB  float64
	PeakdB float64
}

// Result is the complete output of Normalize: per-frame measurements,
// the three gain-envelope stages (linear), and the diagnostic spot list.
type Result struct {
	Frames       []FrameRecord
	Raw          []float64
	Smoothed     []float64
	Final        []float64
	ProblemSpots []ProblemSpot
	FrameSamples int // interleaved samples (all channels) per frame
}

// Normalize runs the five-stage dynamic normalization pipeline over buf.
func Normalize(buf *pcm.Buffer, cfg Config) Result {
	frameSamples := int(cfg.FrameDuration*float64(buf.SampleRate)) * buf.Channels
	if frameSamples <= 0 {
		frameSamples = buf.Channels
	}

	frames := frameLevels(buf.Samples, frameSamples)

	if len(frames) < 2 {
		return Result{
			Frames:       frames,
			Raw:          unitEnvelope(len(frames)),
			Smoothed:     unitEnvelope(len(frames)),
			Final:        unitEnvelope(len(frames)),
			FrameSamples: frameSamples,
		}
	}

	raw := rawGains(frames, cfg)
	smoothed := smooth(raw, cfg.GaussianSize, cfg.GaussianSigma)
	final := peakCap(frames, smoothed, cfg.TruePeakLimitDB)
	spots := problemSpots(frames, final, cfg)

	return Result{
		Frames:       frames,
		Raw:          raw,
		Smoothed:     smoothed,
		Final:        final,
		ProblemSpots: spots,
		FrameSamples: frameSamples,
	}
}

func unitEnvelope(n int) []float64 {
	env := make([]float64, n)
	for i := range env {
		env[i] = 1.0
	}

	return env
}

// frameLevels partitions the interleaved buffer into frames of
// frameSamples interleaved samples and measures RMS/peak across the
// whole window, ignoring channel boundaries.
func frameLevels(samples []float32, frameSamples int) []FrameRecord {
	n := (len(samples) + frameSamples - 1) / frameSamples
	frames := make([]FrameRecord, 0, n)

	for start := 0; start < len(samples); start += frameSamples {
		end := min(start+frameSamples, len(samples))

		var sumSq float64

		var peak float64

		for _, s := range samples[start:end] {
			v := float64(s)
			sumSq += v * v

			if abs := math.Abs(v); abs > peak {
				peak = abs
			}
		}

		rms := math.Sqrt(sumSq / float64(end-start))

		frames = append(frames, FrameRecord{
			RMSdB:  gainsolver.LinearToDB(rms),
			PeakdB: gainsolver.LinearToDB(peak),
		})
	}

	return frames
}

func rawGains(frames []FrameRecord, cfg Config) []float64 {
	raw := make([]float64, len(frames))

	for i, f := range frames {
		if math.IsInf(f.RMSdB, -1) || f.RMSdB < cfg.SilenceThresholdDB {
			raw[i] = 1.0

			continue
		}

		gainDB := clamp(cfg.TargetRMSdB-f.RMSdB, cfg.MinGainDB, cfg.MaxGainDB)
		raw[i] = gainsolver.DBToLinear(gainDB)
	}

	return raw
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// smooth convolves raw with a normalized Gaussian kernel, mirror-padding
// the edges so the output length matches the input. The kernel weights
// come from gonum's normal distribution rather than a hand-rolled exp().
func smooth(raw []float64, size int, sigma float64) []float64 {
	if size%2 == 0 {
		size++
	}

	half := size / 2

	kernel := make([]float64, size)
	dist := distuv.Normal{Mu: 0, Sigma: sigma}

	var sum float64

	for i := -half; i <= half; i++ {
		w := dist.Prob(float64(i))
		kernel[i+half] = w
		sum += w
	}

	for i := range kernel {
		kernel[i] /= sum
	}

	out := make([]float64, len(raw))

	for i := range raw {
		var acc float64

		for k := -half; k <= half; k++ {
			acc += kernel[k+half] * mirrorAt(raw, i+k)
		}

		out[i] = acc
	}

	return out
}

// mirrorAt reads raw[idx], reflecting idx back into range at either edge
// (mirror padding) so a kernel centred near the boundary still sees N
// real-shaped neighbours instead of falling off the end.
func mirrorAt(raw []float64, idx int) float64 {
	n := len(raw)

	for idx < 0 || idx >= n {
		if idx < 0 {
			idx = -idx - 1
		}

		if idx >= n {
			idx = 2*n - idx - 1
		}
	}

	return raw[idx]
}

func peakCap(frames []FrameRecord, smoothed []float64, ceilingDB float64) []float64 {
	final := make([]float64, len(smoothed))

	for i, g := range smoothed {
		peakDB := frames[i].PeakdB
		if math.IsInf(peakDB, -1) {
			final[i] = g

			continue
		}

		if peakDB+gainsolver.LinearToDB(g) > ceilingDB {
			final[i] = gainsolver.DBToLinear(ceilingDB - peakDB)

			continue
		}

		final[i] = g
	}

	return final
}

func problemSpots(frames []FrameRecord, final []float64, cfg Config) []ProblemSpot {
	var spots []ProblemSpot

	for i, f := range frames {
		if f.RMSdB <= cfg.SilenceThresholdDB {
			continue
		}

		appliedDB := gainsolver.LinearToDB(final[i])
		if math.Abs(appliedDB) <= 6 {
			continue
		}

		category := TooLoud
		if appliedDB > 0 {
			category = TooQuiet
		}

		spots = append(spots, ProblemSpot{
			FrameIndex:    i,
			Category:      category,
			TimeSeconds:   float64(i) * cfg.FrameDuration,
			OriginalDB:    f.RMSdB,
			AppliedGainDB: appliedDB,
			ResultingDB:   f.RMSdB + appliedDB,
		})
	}

	sort.Slice(spots, func(i, j int) bool {
		return math.Abs(spots[i].AppliedGainDB) > math.Abs(spots[j].AppliedGainDB)
	})

	return spots
}
