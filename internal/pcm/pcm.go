// Package pcm defines the in-memory interleaved f32 PCM buffer the DSP
// core operates on, and the adapter that decodes integer PCM bytes (as
// produced by a container demuxer) into one.
package pcm

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/galewave/loudgate/internal/dsperr"
)

// BitDepth is the sample width of the byte-PCM wire format a decoder
// accepts. The DSP core itself only ever sees Buffer (f32); BitDepth is
// purely an adapter-boundary concern.
type BitDepth uint

const (
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

const (
	maxValue16 = 32768.0
	maxValue24 = 8388608.0
	maxValue32 = 2147483648.0
)

// Format describes the byte-PCM a decoder is asked to read: little-endian,
// signed, interleaved by channel.
type Format struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   int
}

// Buffer is an ordered sequence of f32 samples, interleaved by channel
// (channel 0 at offsets 0, N, 2N, ... where N is Channels). SampleRate and
// Channels are fixed for the buffer's lifetime.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// New validates and wraps raw interleaved samples into a Buffer.
func New(samples []float32, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d <= 0", dsperr.ErrInvalidInput, sampleRate)
	}

	if channels <= 0 {
		return nil, fmt.Errorf("%w: channel count %d <= 0", dsperr.ErrInvalidInput, channels)
	}

	if len(samples)%channels != 0 {
		return nil, fmt.Errorf(
			"%w: sample count %d not a multiple of channel count %d",
			dsperr.ErrInvalidInput, len(samples), channels,
		)
	}

	return &Buffer{Samples: samples, SampleRate: sampleRate, Channels: channels}, nil
}

// Frames reports the number of per-channel sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}

	return len(b.Samples) / b.Channels
}

// At returns the sample for frame f, channel c.
func (b *Buffer) At(f, c int) float32 {
	return b.Samples[f*b.Channels+c]
}

// Decode reads complete frames of little-endian signed PCM from r and
// returns an interleaved f32 Buffer, scaled into [-1, 1] by the format's
// full-scale divisor. Input is read in whole-buffer chunks, so only a
// trailing partial frame at the end of the stream is discarded.
func Decode(r io.Reader, format Format) (*Buffer, error) {
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d <= 0", dsperr.ErrInvalidInput, format.SampleRate)
	}

	if format.Channels <= 0 {
		return nil, fmt.Errorf("%w: channel count %d <= 0", dsperr.ErrInvalidInput, format.Channels)
	}

	bytesPerSample := int(format.BitDepth / 8)
	frameSize := bytesPerSample * format.Channels

	if frameSize <= 0 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", dsperr.ErrInvalidInput, format.BitDepth)
	}

	var maxVal float32

	switch format.BitDepth {
	case Depth16:
		maxVal = maxValue16
	case Depth24:
		maxVal = maxValue24
	case Depth32:
		maxVal = maxValue32
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", dsperr.ErrInvalidInput, format.BitDepth)
	}

	buf := make([]byte, frameSize*4096)

	var samples []float32

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			completeFrames := (n / frameSize) * frameSize
			data := buf[:completeFrames]

			decodeInto(&samples, data, format, maxVal)
		}

		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", dsperr.ErrProcessingFailed, err)
		}
	}

	return New(samples, format.SampleRate, format.Channels)
}

// Encode writes buf to w as little-endian signed PCM at the given bit
// depth, the inverse scaling of Decode.
func Encode(w io.Writer, buf *Buffer, bitDepth BitDepth) error {
	var maxVal float32

	switch bitDepth {
	case Depth16:
		maxVal = maxValue16
	case Depth24:
		maxVal = maxValue24
	case Depth32:
		maxVal = maxValue32
	default:
		return fmt.Errorf("%w: unsupported bit depth %d", dsperr.ErrInvalidInput, bitDepth)
	}

	bytesPerSample := int(bitDepth / 8)

	out := make([]byte, len(buf.Samples)*bytesPerSample)

	for i, s := range buf.Samples {
		v := float64(s) * float64(maxVal)

		switch bitDepth {
		case Depth16:
			clamped := clampInt(v, -32768, 32767)
			binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(clamped)))
		case Depth24:
			clamped := int32(clampInt(v, -8388608, 8388607))
			off := i * 3
			out[off] = byte(clamped)
			out[off+1] = byte(clamped >> 8)
			out[off+2] = byte(clamped >> 16)
		case Depth32:
			clamped := clampInt(v, -2147483648, 2147483647)
			binary.LittleEndian.PutUint32(out[i*4:], uint32(int32(clamped)))
		}
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("%w: %w", dsperr.ErrProcessingFailed, err)
	}

	return nil
}

func clampInt(v, lo, hi float64) int64 {
	if v < lo {
		return int64(lo)
	}

	if v > hi {
		return int64(hi)
	}

	return int64(v)
}

func decodeInto(samples *[]float32, data []byte, format Format, maxVal float32) {
	switch format.BitDepth {
	case Depth16:
		for i := 0; i < len(data); i += 2 {
			*samples = append(*samples, float32(int16(binary.LittleEndian.Uint16(data[i:])))/maxVal)
		}
	case Depth24:
		for i := 0; i+2 < len(data); i += 3 {
			raw := int32(data[i]) | int32(data[i+1])<<8 | int32(data[i+2])<<16
			if raw&0x800000 != 0 {
				raw |= ^0xFFFFFF
			}

			*samples = append(*samples, float32(raw)/maxVal)
		}
	case Depth32:
		for i := 0; i < len(data); i += 4 {
			*samples = append(*samples, float32(int32(binary.LittleEndian.Uint32(data[i:])))/maxVal)
		}
	default:
	}
}

// ChannelStats holds a single-pass streaming summary of each channel.
type ChannelStats struct {
	Peak   []float64 // per-channel sample peak, linear
	SumSq  []float64 // per-channel sum of squares
	Count  []int     // per-channel sample count
}

// Stats computes per-channel peak/RMS statistics in one streaming pass.
func Stats(buf *Buffer) ChannelStats {
	stats := ChannelStats{
		Peak:  make([]float64, buf.Channels),
		SumSq: make([]float64, buf.Channels),
		Count: make([]int, buf.Channels),
	}

	for i, s := range buf.Samples {
		ch := i % buf.Channels

		v := float64(s)
		if v < 0 {
			v = -v
		}

		if v > stats.Peak[ch] {
			stats.Peak[ch] = v
		}

		stats.SumSq[ch] += float64(s) * float64(s)
		stats.Count[ch]++
	}

	return stats
}

// RMS returns the RMS of channel c, linear.
func (c ChannelStats) RMS(ch int) float64 {
	if c.Count[ch] == 0 {
		return 0
	}

	sumSq := c.SumSq[ch] / float64(c.Count[ch])

	return sqrt(sumSq)
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	// Newton's method avoids importing math just for Sqrt in this tiny
	// helper; this file otherwise has no math import. Starting at or above
	// the root, the iterates decrease monotonically, so stop once they no
	// longer do.
	x := max(v, 1)
	for {
		next := 0.5 * (x + v/x)
		if next >= x {
			return x
		}

		x = next
	}
}
