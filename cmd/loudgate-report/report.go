//nolint:wrapcheck
package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/galewave/loudgate"
	"github.com/galewave/loudgate/internal/integration/ffmpeg"
	"github.com/galewave/loudgate/internal/integration/ffprobe"
	"github.com/galewave/loudgate/internal/output"
	"github.com/galewave/loudgate/internal/pcm"
)

const outputFile = "loudgate-report.jsonl"

var (
	errNotDirectory      = errors.New("not a directory")
	errNoAudioFiles      = errors.New("no .flac or .m4a files found")
	errNoAudioStream     = errors.New("no audio streams found")
	errInvalidSampleRate = errors.New("invalid sample rate")
	errInvalidChannels   = errors.New("invalid channel count")
)

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Scan a music collection and write a loudgate JSONL report",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.StringFlag{
				Name:  "method",
				Usage: "Gain strategy: peak, rms, lufs",
				Value: "lufs",
			},
			&cli.FloatFlag{
				Name:  "target-lufs",
				Usage: "Target integrated loudness in LUFS (lufs method)",
				Value: -14,
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("expected exactly one argument: folder path")
			}

			folder := cmd.Args().First()
			workers := max(cmd.Int("workers"), 1)

			method, err := parseMethod(cmd.String("method"), cmd.Float("target-lufs"))
			if err != nil {
				return err
			}

			return runReport(ctx, folder, cmd.Bool("redact-path"), cmd.String("method"), method, workers)
		},
	}
}

func parseMethod(name string, targetLUFS float64) (loudgate.Method, error) {
	switch name {
	case "peak":
		return loudgate.Peak(0), nil
	case "rms":
		return loudgate.RMS(0), nil
	case "lufs":
		return loudgate.LUFS(targetLUFS, -1.0), nil
	default:
		return nil, fmt.Errorf("unknown method %q, want peak, rms or lufs", name)
	}
}

func runReport(
	ctx context.Context, folder string, redact bool, methodName string, method loudgate.Method, workers int,
) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", folder, errNotDirectory)
	}

	files, err := collectAudioFiles(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", folder, errNoAudioFiles)
	}

	fmt.Fprintf(os.Stderr, "Found %d files to measure (%d workers)\n", len(files), workers)

	startTime := time.Now()
	results := make([]Record, len(files))

	var progress atomic.Int64

	sem := make(chan struct{}, workers)

	var waitGroup sync.WaitGroup

	for idx, filePath := range files {
		waitGroup.Add(1)

		go func(idx int, filePath string) {
			defer waitGroup.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = processFile(ctx, filePath, methodName, method)

			done := progress.Add(1)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, len(files), filePath)
		}(idx, filePath)
	}

	waitGroup.Wait()

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	for idx := range results {
		record := &results[idx]

		if record.Error != "" {
			failed++
		}

		if redact {
			record.File = ""
			record.Probe = redactProbe(record.Probe)
		}

		if err := enc.Encode(record); err != nil {
			slog.Error("writing record", "file", files[idx], "error", err)
		}
	}

	out.Close()

	if err := compressFile(outputFile); err != nil {
		slog.Error("compressing report", "error", err)
	}

	elapsed := time.Since(startTime)
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60

	fmt.Fprintf(os.Stderr, "\nDone: %d files in %dm %ds (%d failed)\n", len(files), minutes, seconds, failed)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", outputFile, outputFile)
	fmt.Fprintln(os.Stderr)

	return runDigest(outputFile)
}

func processFile(ctx context.Context, filePath, methodName string, method loudgate.Method) Record {
	fileStart := time.Now()
	timing := &RecordTiming{}

	probeStart := time.Now()

	probeResult, err := ffprobe.Probe(ctx, filePath)

	timing.ProbeMs = durationMs(time.Since(probeStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("probe failed: %v", err), Timing: timing}
	}

	stream, err := findAudioStream(probeResult)
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("no audio stream: %v", err), Timing: timing}
	}

	pcmFormat, err := buildPCMFormat(stream)
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("format error: %v", err), Timing: timing}
	}

	decodeStart := time.Now()

	file, err := os.Open(filePath) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("open failed: %v", err), Timing: timing}
	}
	defer file.Close()

	var pcmBuf bytes.Buffer

	extractFormat := &pcm.Format{BitDepth: pcm.Depth32}

	if err = ffmpeg.ExtractStream(ctx, file, &pcmBuf, 0, extractFormat); err != nil {
		timing.DecodeMs = durationMs(time.Since(decodeStart))

		return Record{File: filePath, Error: fmt.Sprintf("extraction failed: %v", err), Timing: timing}
	}

	timing.DecodeMs = durationMs(time.Since(decodeStart))

	measureStart := time.Now()

	buf, err := pcm.Decode(bytes.NewReader(pcmBuf.Bytes()), pcmFormat)
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("buffer error: %v", err), Timing: timing}
	}

	analysis, err := loudgate.AnalyzeBuffer(buf, method)

	timing.MeasureMs = durationMs(time.Since(measureStart))
	timing.TotalMs = durationMs(time.Since(fileStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("analysis failed: %v", err), Timing: timing}
	}

	record := Record{
		File:   filePath,
		Method: methodName,
		Result: output.AnalysisToMap(analysis),
		Timing: timing,
	}

	probeJSON, err := json.Marshal(probeResult)
	if err == nil {
		record.Probe = probeJSON
	}

	return record
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func findAudioStream(result *ffprobe.Result) (*ffprobe.Stream, error) {
	for i := range result.Streams {
		if result.Streams[i].CodecType == "audio" {
			return &result.Streams[i], nil
		}
	}

	return nil, errNoAudioStream
}

func buildPCMFormat(stream *ffprobe.Stream) (pcm.Format, error) {
	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return pcm.Format{}, fmt.Errorf("%q: %w", stream.SampleRate, errInvalidSampleRate)
	}

	if stream.Channels <= 0 {
		return pcm.Format{}, fmt.Errorf("%d: %w", stream.Channels, errInvalidChannels)
	}

	return pcm.Format{
		SampleRate: sampleRate,
		BitDepth:   pcm.Depth32,
		Channels:   stream.Channels,
	}, nil
}

func collectAudioFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".flac" || ext == ".m4a" {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}

func redactProbe(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}

	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return raw
	}

	if format, ok := probe["format"].(map[string]any); ok {
		delete(format, "filename")
	}

	redacted, err := json.Marshal(probe)
	if err != nil {
		return raw
	}

	return redacted
}
