//nolint:tagliatelle
package main

import "encoding/json"

// Record is a single line in the JSONL report file.
type Record struct {
	File   string          `json:"file,omitempty"`
	Method string          `json:"method,omitempty"`
	Result map[string]any  `json:"result,omitempty"`
	Probe  json.RawMessage `json:"probe,omitempty"`
	Error  string          `json:"error,omitempty"`
	Timing *RecordTiming   `json:"timing,omitempty"`
}

// RecordTiming captures per-file processing durations in milliseconds.
type RecordTiming struct {
	ProbeMs   float64 `json:"probe_ms"`
	DecodeMs  float64 `json:"decode_ms"`
	MeasureMs float64 `json:"measure_ms"`
	TotalMs   float64 `json:"total_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	File   string        `json:"file,omitempty"`
	Result *digestResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type digestResult struct {
	IntegratedLUFS float64 `json:"integrated_lufs"`
	TruePeakDB     float64 `json:"true_peak_db"`
	PeakDB         float64 `json:"peak_db"`
	RequiredGainDB float64 `json:"required_gain_db"`
	Preview        struct {
		ProblemSpotCount int `json:"problem_spot_count"`
	} `json:"preview"`
}
