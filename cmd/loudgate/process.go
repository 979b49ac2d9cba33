//nolint:wrapcheck
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/galewave/loudgate"
	"github.com/galewave/loudgate/internal/integration/ffmpeg"
	"github.com/galewave/loudgate/internal/integration/ffprobe"
	"github.com/galewave/loudgate/internal/pcm"
)

var errProcessArgs = errors.New("expected exactly one argument: file path")

func processCommand() *cli.Command {
	flags := methodFlags()
	flags = append(flags,
		&cli.IntFlag{
			Name:  "stream",
			Usage: "Audio stream index (0-based)",
			Value: 0,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"D"},
			Usage:   "Include all raw measurements in output",
		},
	)

	return &cli.Command{
		Name:      "process",
		Usage:     "Extract PCM from a container file via ffmpeg/ffprobe and measure loudness",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errProcessArgs, cmd.NArg())
			}

			filePath := cmd.Args().First()
			streamIndex := cmd.Int("stream")

			method, err := parseMethod(cmd)
			if err != nil {
				return err
			}

			probeResult, err := ffprobe.Probe(ctx, filePath)
			if err != nil {
				return fmt.Errorf("probing file: %w", err)
			}

			stream, err := findAudioStream(probeResult, streamIndex)
			if err != nil {
				return err
			}

			pcmFormat, err := buildPCMFormat(stream)
			if err != nil {
				return err
			}

			file, openErr := os.Open(filePath) //nolint:gosec // CLI tool opens user-specified audio files
			if openErr != nil {
				return fmt.Errorf("opening file: %w", openErr)
			}
			defer file.Close()

			var pcmBuf bytes.Buffer

			extractFormat := &pcm.Format{BitDepth: pcm.Depth32}

			if err = ffmpeg.ExtractStream(ctx, file, &pcmBuf, streamIndex, extractFormat); err != nil {
				return fmt.Errorf("extracting PCM: %w", err)
			}

			reader := io.Reader(bytes.NewReader(pcmBuf.Bytes()))

			analysis, err := loudgate.Analyze(reader, pcmFormat, method)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			return outputAnalysis(filePath, analysis, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}

func findAudioStream(result *ffprobe.Result, streamIndex int) (*ffprobe.Stream, error) {
	audioCount := 0

	for i := range result.Streams {
		if result.Streams[i].CodecType == "audio" {
			if audioCount == streamIndex {
				return &result.Streams[i], nil
			}

			audioCount++
		}
	}

	return nil, fmt.Errorf("audio stream index %d not found (file has %d audio streams)", streamIndex, audioCount)
}

func buildPCMFormat(stream *ffprobe.Stream) (pcm.Format, error) {
	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return pcm.Format{}, fmt.Errorf("invalid sample rate from probe: %q", stream.SampleRate)
	}

	if stream.Channels <= 0 {
		return pcm.Format{}, fmt.Errorf("invalid channel count from probe: %d", stream.Channels)
	}

	return pcm.Format{
		SampleRate: sampleRate,
		BitDepth:   pcm.Depth32,
		Channels:   stream.Channels,
	}, nil
}
