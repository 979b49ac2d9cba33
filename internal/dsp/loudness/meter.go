// Package loudness implements the ITU-R BS.1770-4 / EBU R128 gated
// loudness meter: momentary (400ms), short-term (3s) and integrated
// loudness, plus Loudness Range (LRA).
package loudness

import (
	"math"
	"sort"

	"github.com/galewave/loudgate/internal/dsp/biquad"
	"github.com/galewave/loudgate/internal/dsp/kweight"
	"github.com/galewave/loudgate/internal/pcm"
)

// silenceFloorLUFS is the meter's reported loudness for input that never
// produces a single gate-passing block (pure digital silence, or input
// shorter than one momentary window).
const silenceFloorLUFS = -120.0

// Result is the outcome of a full-buffer loudness measurement.
type Result struct {
	IntegratedLUFS   float64
	ShortTermMax     float64
	MomentaryMax     float64
	LoudnessRange    float64
	HasLoudnessRange bool
	Frames           uint64
}

// Meter accumulates K-weighted power over a stream of frames and derives
// gated loudness statistics. It holds per-channel filter state, so a
// single Meter must not be shared across unrelated streams.
type Meter struct {
	numChannels int
	sampleRate  int
	pre, rlb    biquad.Coeffs
	preState    []biquad.State
	rlbState    []biquad.State

	momentarySize int
	shortTermSize int
	hopSize       int

	momentaryBuf    []float64
	shortTermBuf    []float64
	momentaryPos    int
	shortTermPos    int
	momentarySum    float64
	shortTermSum    float64
	momentaryFilled int
	shortTermFilled int

	momentaryPowers []float64
	shortTermPowers []float64
	momentaryMax    float64
	shortTermMax    float64

	sampleCount int
	totalFrames uint64
}

// NewMeter allocates a Meter for the given sample rate and channel count.
func NewMeter(sampleRate, numChannels int) *Meter {
	pre, rlb := kweight.Filters(sampleRate)

	momentarySize := sampleRate * 400 / 1000
	shortTermSize := sampleRate * 3

	return &Meter{
		numChannels:   numChannels,
		sampleRate:    sampleRate,
		pre:           pre,
		rlb:           rlb,
		preState:      make([]biquad.State, numChannels),
		rlbState:      make([]biquad.State, numChannels),
		momentarySize: momentarySize,
		shortTermSize: shortTermSize,
		hopSize:       sampleRate * 100 / 1000,
		momentaryBuf:  make([]float64, momentarySize),
		shortTermBuf:  make([]float64, shortTermSize),
		momentaryMax:  silenceFloorLUFS,
		shortTermMax:  silenceFloorLUFS,
	}
}

// processFrame K-weights and accumulates one frame's worth of samples,
// given as frame[channel].
func (m *Meter) processFrame(frame []float64) {
	var framePower float64

	for channel, sample := range frame {
		filtered := biquad.Process(m.pre, &m.preState[channel], sample)
		filtered = biquad.Process(m.rlb, &m.rlbState[channel], filtered)

		weight := kweight.ChannelWeight(channel, m.numChannels)
		framePower += weight * filtered * filtered
	}

	old := m.momentaryBuf[m.momentaryPos]
	m.momentaryBuf[m.momentaryPos] = framePower
	m.momentarySum = m.momentarySum - old + framePower
	m.momentaryPos = (m.momentaryPos + 1) % m.momentarySize

	if m.momentaryFilled < m.momentarySize {
		m.momentaryFilled++
	}

	old = m.shortTermBuf[m.shortTermPos]
	m.shortTermBuf[m.shortTermPos] = framePower
	m.shortTermSum = m.shortTermSum - old + framePower
	m.shortTermPos = (m.shortTermPos + 1) % m.shortTermSize

	if m.shortTermFilled < m.shortTermSize {
		m.shortTermFilled++
	}

	m.sampleCount++
	m.totalFrames++

	if m.sampleCount%m.hopSize == 0 {
		if m.momentaryFilled == m.momentarySize {
			power := m.momentarySum / float64(m.momentarySize)
			m.momentaryPowers = append(m.momentaryPowers, power)

			if loudness := powerToLUFS(power); loudness > m.momentaryMax {
				m.momentaryMax = loudness
			}
		}

		if m.shortTermFilled == m.shortTermSize {
			power := m.shortTermSum / float64(m.shortTermSize)
			m.shortTermPowers = append(m.shortTermPowers, power)

			if loudness := powerToLUFS(power); loudness > m.shortTermMax {
				m.shortTermMax = loudness
			}
		}
	}
}

// Measure runs a fresh Meter over an entire buffer and returns the gated
// loudness statistics.
func Measure(buf *pcm.Buffer) Result {
	m := NewMeter(buf.SampleRate, buf.Channels)

	frame := make([]float64, buf.Channels)

	for f := 0; f < buf.Frames(); f++ {
		for c := range buf.Channels {
			frame[c] = float64(buf.At(f, c))
		}

		m.processFrame(frame)
	}

	lra, hasLRA := calculateLoudnessRange(m.shortTermPowers)

	return Result{
		IntegratedLUFS:   calculateIntegratedLoudness(m.momentaryPowers),
		ShortTermMax:     m.shortTermMax,
		MomentaryMax:     m.momentaryMax,
		LoudnessRange:    lra,
		HasLoudnessRange: hasLRA,
		Frames:           m.totalFrames,
	}
}

func powerToLUFS(power float64) float64 {
	return -0.691 + 10*math.Log10(power)
}

// calculateIntegratedLoudness applies the BS.1770-4 two-stage gate: an
// absolute gate at -70 LUFS, then a relative gate 10 LU below the mean of
// the absolute-gated blocks.
func calculateIntegratedLoudness(powers []float64) float64 {
	if len(powers) == 0 {
		return silenceFloorLUFS
	}

	var sum float64

	var count int

	for _, p := range powers {
		if powerToLUFS(p) > -70 {
			sum += p
			count++
		}
	}

	if count == 0 {
		return silenceFloorLUFS
	}

	ungatedMean := sum / float64(count)
	relativeThreshold := powerToLUFS(ungatedMean) - 10

	sum = 0
	count = 0

	for _, p := range powers {
		if powerToLUFS(p) > relativeThreshold {
			sum += p
			count++
		}
	}

	if count == 0 {
		return silenceFloorLUFS
	}

	return powerToLUFS(sum / float64(count))
}

// minLRAQualifyingBlocks is the minimum number of relatively-gated
// short-term blocks required before Loudness Range is reported at all;
// below this, LRA is absent rather than a statistically meaningless
// spread over a handful of blocks.
const minLRAQualifyingBlocks = 20

// calculateLoudnessRange gates short-term blocks at an absolute -70 LUFS
// floor, then relatively at mean-20LU, and reports the spread between the
// 10th and 95th percentile of what remains (integer-truncated indices).
// The second return is false when fewer than minLRAQualifyingBlocks
// blocks survive gating, meaning LRA is absent, not zero.
func calculateLoudnessRange(powers []float64) (float64, bool) {
	if len(powers) < minLRAQualifyingBlocks {
		return 0, false
	}

	var lufsValues []float64

	for _, p := range powers {
		if lufs := powerToLUFS(p); lufs > -70 {
			lufsValues = append(lufsValues, lufs)
		}
	}

	if len(lufsValues) < minLRAQualifyingBlocks {
		return 0, false
	}

	var sum float64
	for _, l := range lufsValues {
		sum += l
	}

	mean := sum / float64(len(lufsValues))
	relativeThreshold := mean - 20

	var gated []float64

	for _, l := range lufsValues {
		if l > relativeThreshold {
			gated = append(gated, l)
		}
	}

	if len(gated) < minLRAQualifyingBlocks {
		return 0, false
	}

	sort.Float64s(gated)

	low := gated[int(float64(len(gated))*0.10)]
	high := gated[int(float64(len(gated))*0.95)]

	return high - low, true
}
