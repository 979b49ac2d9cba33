// Package dsperr defines the small error taxonomy the DSP core and its
// adapters use. The core itself never returns these for numeric edge cases
// (silence, empty gates, -Inf dB); it degrades to unit gain or absent
// metrics instead. They surface only at adapter boundaries: malformed
// input shapes, and I/O/subprocess failures.
package dsperr

import "errors"

var (
	// ErrInvalidInput marks a caller mistake: zero samples, a sample rate
	// <= 0, or an interleaved buffer whose length isn't a multiple of the
	// declared channel count.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData marks input shorter than the smallest meaningful
	// analysis window. Most DSP paths degrade gracefully instead of
	// returning this; it is reserved for callers that need to distinguish
	// "degenerate result" from "normal result" explicitly.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrProcessingFailed is reserved for the enclosing I/O adapter
	// (container demux/encode, file reads). The DSP core never emits it.
	ErrProcessingFailed = errors.New("processing failed")
)
