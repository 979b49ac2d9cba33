// Package truepeak implements inter-sample ("true") peak detection by 4x
// oversampling, per ITU-R BS.1770-4. Two estimation methods are offered:
// a fast Catmull-Rom cubic interpolation, and an accurate 4-phase x
// 12-tap polyphase windowed-sinc FIR whose coefficients are fixed for
// cross-implementation interoperability.
package truepeak

import (
	"math"

	"github.com/galewave/loudgate/internal/pcm"
)

// Method selects the true-peak estimation algorithm.
type Method int

const (
	// Fast uses Catmull-Rom cubic interpolation with an early-exit skip.
	Fast Method = iota
	// Accurate uses the fixed 4x12 polyphase FIR.
	Accurate
)

const (
	oversample   = 4
	tapsPerPhase = 12
)

// polyphaseCoeffs holds phases 1-3 of the accurate-path FIR; phase 0
// passes the centre sample through unchanged and is not tabulated.
// Values are exact per the interoperability requirement: phase 3 is the
// time-reversed mirror of phase 1, kept spelled out rather than derived
// so a reader can see the symmetry directly.
var polyphaseCoeffs = [3][tapsPerPhase]float64{
	{0.0024, -0.0104, 0.0297, -0.0716, 0.2037, 0.9233, -0.1260, 0.0506, -0.0199, 0.0067, -0.0016, 0.0002},
	{0.0037, -0.0179, 0.0548, -0.1542, 0.6155, 0.6155, -0.1542, 0.0548, -0.0179, 0.0037, -0.0005, 0.0000},
	{0.0002, -0.0016, 0.0067, -0.0199, 0.0506, -0.1260, 0.9233, 0.2037, -0.0716, 0.0297, -0.0104, 0.0024},
}

// Result is a true-peak measurement across all channels of a buffer.
type Result struct {
	SamplePeakDB   float64
	TruePeakDB     float64
	TruePeakLinear float64
	ISPCount       uint64
	ISPMaxDB       float64
}

// channelHistory is a 12-sample ring used as the polyphase FIR's delay
// line, always read in chronological order via at().
type channelHistory struct {
	buf [tapsPerPhase]float64
	pos int
}

func (h *channelHistory) push(x float64) {
	h.buf[h.pos] = x
	h.pos = (h.pos + 1) % tapsPerPhase
}

// at returns the sample that is `age` pushes in the past (age=0 is the
// most recently pushed sample).
func (h *channelHistory) at(age int) float64 {
	idx := (h.pos - 1 - age%tapsPerPhase + 2*tapsPerPhase) % tapsPerPhase

	return h.buf[idx]
}

// Detector measures sample peak and true peak of a single channel's
// samples, accumulating into a running Result. Detect runs one Detector
// per channel and merges their results with Merge.
type Detector struct {
	method  Method
	history channelHistory

	samplePeak float64
	truePeak   float64
	ispCount   uint64
	ispMax     float64

	fastMax float64
}

// NewDetector creates a per-channel true-peak detector.
func NewDetector(method Method) *Detector {
	return &Detector{method: method}
}

// Push feeds one sample into the detector.
func (d *Detector) Push(sample float64) {
	abs := math.Abs(sample)
	if abs > d.samplePeak {
		d.samplePeak = abs
	}

	switch d.method {
	case Fast:
		d.pushFast(sample)
	case Accurate:
		d.pushAccurate(sample)
	}
}

func (d *Detector) pushFast(sample float64) {
	h := &d.history

	// y0..y3 are the four most recent samples in chronological order,
	// with the new sample as y3; the interpolated points lie between y1
	// and y2.
	y0, y1, y2 := h.at(2), h.at(1), h.at(0)
	y3 := sample

	h.push(sample)

	if math.Max(math.Abs(y1), math.Abs(y2)) < 0.9*d.fastMax {
		return
	}

	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	d.considerPeak(math.Abs(y1))

	for _, t := range [...]float64{0.25, 0.5, 0.75} {
		v := ((a0*t+a1)*t+a2)*t + a3

		d.considerPeak(math.Abs(v))
	}

	if d.truePeak > d.fastMax {
		d.fastMax = d.truePeak
	}
}

func (d *Detector) pushAccurate(sample float64) {
	h := &d.history
	h.push(sample)

	// Phase 0: the centre sample itself, six pushes behind the newest
	// (tap 5 of the 12-tap window), the instant the other phases
	// interpolate forward from.
	d.considerPeak(math.Abs(h.at(tapsPerPhase / 2)))

	for _, coeffs := range polyphaseCoeffs {
		var interp float64

		for tap := range tapsPerPhase {
			interp += h.at(tapsPerPhase-1-tap) * coeffs[tap]
		}

		d.considerPeak(math.Abs(interp))
	}
}

func (d *Detector) considerPeak(abs float64) {
	if abs > d.truePeak {
		d.truePeak = abs
	}

	if abs > 1.0 {
		d.ispCount++

		if overshoot := 20 * math.Log10(abs); overshoot > d.ispMax {
			d.ispMax = overshoot
		}
	}
}

// Result converts the detector's accumulated linear peaks to dBFS.
func (d *Detector) Result() Result {
	return Result{
		SamplePeakDB:   linearToDB(d.samplePeak),
		TruePeakDB:     linearToDB(d.truePeak),
		TruePeakLinear: d.truePeak,
		ISPCount:       d.ispCount,
		ISPMaxDB:       d.ispMax,
	}
}

func linearToDB(v float64) float64 {
	if v <= 0 {
		return -120.0
	}

	return 20 * math.Log10(v)
}

// Detect measures sample peak and true peak across every channel of buf
// and merges them into a single Result.
func Detect(buf *pcm.Buffer, method Method) Result {
	detectors := make([]*Detector, buf.Channels)
	for c := range detectors {
		detectors[c] = NewDetector(method)
	}

	for f := 0; f < buf.Frames(); f++ {
		for c := range buf.Channels {
			detectors[c].Push(float64(buf.At(f, c)))
		}
	}

	results := make([]Result, buf.Channels)
	for c, d := range detectors {
		results[c] = d.Result()
	}

	return Merge(results)
}

// Merge combines per-channel results into a single across-channel
// Result: peaks take the max, ISP counts sum.
func Merge(results []Result) Result {
	merged := Result{SamplePeakDB: -120, TruePeakDB: -120, ISPMaxDB: -120}

	for _, r := range results {
		if r.SamplePeakDB > merged.SamplePeakDB {
			merged.SamplePeakDB = r.SamplePeakDB
		}

		if r.TruePeakDB > merged.TruePeakDB {
			merged.TruePeakDB = r.TruePeakDB
		}

		if r.TruePeakLinear > merged.TruePeakLinear {
			merged.TruePeakLinear = r.TruePeakLinear
		}

		if r.ISPMaxDB > merged.ISPMaxDB {
			merged.ISPMaxDB = r.ISPMaxDB
		}

		merged.ISPCount += r.ISPCount
	}

	return merged
}
