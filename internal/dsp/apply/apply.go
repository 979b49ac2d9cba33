// Package apply rewrites a PCM buffer in place with a computed gain,
// either a single scalar (static methods) or a piecewise-linear
// interpolated envelope (dynamic method).
package apply

import "github.com/galewave/loudgate/internal/pcm"

// Scalar multiplies every sample in buf by gainLinear, in place.
func Scalar(buf *pcm.Buffer, gainLinear float64) {
	g := float32(gainLinear)

	for i, s := range buf.Samples {
		buf.Samples[i] = s * g
	}
}

// Envelope applies a per-frame gain envelope to buf in place. final holds
// one linear gain per frame of frameSamples interleaved samples (all
// channels together); the gain applied to interleaved sample index s is
// linearly interpolated between final[i] and final[i+1], where
// i = s / frameSamples, continuous across frame boundaries.
func Envelope(buf *pcm.Buffer, final []float64, frameSamples int) {
	if len(final) == 0 || frameSamples <= 0 {
		return
	}

	last := len(final) - 1

	for s := range buf.Samples {
		p := float64(s) / float64(frameSamples)
		i := int(p)

		if i > last {
			i = last
		}

		t := p - float64(i)

		next := i
		if i < last {
			next = i + 1
		}

		gain := final[i] + t*(final[next]-final[i])

		buf.Samples[s] = float32(float64(buf.Samples[s]) * gain)
	}
}
