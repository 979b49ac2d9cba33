package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/galewave/loudgate"
	"github.com/galewave/loudgate/internal/dsp/dynamics"
	"github.com/galewave/loudgate/internal/pcm"
)

// pcmFormatFlags are the raw-PCM shape flags shared by measure and normalize.
func pcmFormatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     "sample-rate",
			Aliases:  []string{"s"},
			Usage:    "Sample rate in Hz (e.g., 44100, 48000, 96000)",
			Required: true,
		},
		&cli.IntFlag{
			Name:    "bit-depth",
			Aliases: []string{"b"},
			Usage:   "Bit depth (16, 24, or 32)",
			Value:   32,
		},
		&cli.IntFlag{
			Name:    "channels",
			Aliases: []string{"c"},
			Usage:   "Number of channels (1 = mono, 2 = stereo)",
			Value:   2,
		},
	}
}

func parsePCMFormat(cmd *cli.Command) (pcm.Format, error) {
	bitDepth, err := toBitDepth(cmd.Int("bit-depth"))
	if err != nil {
		return pcm.Format{}, fmt.Errorf("--bit-depth: %w", err)
	}

	return pcm.Format{
		SampleRate: cmd.Int("sample-rate"),
		BitDepth:   bitDepth,
		Channels:   cmd.Int("channels"),
	}, nil
}

var errInvalidBitDepth = errors.New("must be 16, 24, or 32")

func toBitDepth(v int) (pcm.BitDepth, error) {
	switch v {
	case 16:
		return pcm.Depth16, nil
	case 24:
		return pcm.Depth24, nil
	case 32:
		return pcm.Depth32, nil
	default:
		return 0, errInvalidBitDepth
	}
}

// methodFlags are the gain-target flags shared by measure and normalize.
func methodFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "method",
			Aliases: []string{"m"},
			Usage:   "Gain strategy: peak, rms, lufs, dynamic",
			Value:   "peak",
		},
		&cli.FloatFlag{
			Name:  "target-db",
			Usage: "Target level in dBFS (peak/rms methods)",
		},
		&cli.FloatFlag{
			Name:  "target-lufs",
			Usage: "Target integrated loudness in LUFS (lufs method)",
			Value: -14,
		},
		&cli.FloatFlag{
			Name:  "true-peak-ceiling",
			Usage: "True-peak ceiling in dBTP (lufs method)",
			Value: -1.0,
		},
		&cli.StringFlag{
			Name:  "preset",
			Usage: "Dynamic normalizer preset: voice, meditation, music",
			Value: "voice",
		},
	}
}

var errUnknownPreset = errors.New("unknown preset, want voice, meditation or music")

func parseMethod(cmd *cli.Command) (loudgate.Method, error) {
	switch cmd.String("method") {
	case "peak":
		return loudgate.Peak(cmd.Float("target-db")), nil
	case "rms":
		return loudgate.RMS(cmd.Float("target-db")), nil
	case "lufs":
		return loudgate.LUFS(cmd.Float("target-lufs"), cmd.Float("true-peak-ceiling")), nil
	case "dynamic":
		cfg, err := presetConfig(cmd.String("preset"))
		if err != nil {
			return nil, err
		}

		return loudgate.Dynamic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown method %q, want peak, rms, lufs or dynamic", cmd.String("method"))
	}
}

func presetConfig(name string) (dynamics.Config, error) {
	switch name {
	case "voice":
		return dynamics.VoicePreset(), nil
	case "meditation":
		return dynamics.MeditationPreset(), nil
	case "music":
		return dynamics.MusicPreset(), nil
	default:
		return dynamics.Config{}, fmt.Errorf("%w: %q", errUnknownPreset, name)
	}
}

// openInput returns a reader over path, or stdin when path is "-", along
// with a cleanup function the caller must defer.
func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening %s: %w", path, err)
	}

	return f, func() { f.Close() }, nil
}

// createOutput returns a writer over path, or stdout when path is "-" or
// empty, along with a cleanup function the caller must defer.
func createOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path) //nolint:gosec // CLI tool writes to a user-specified path
	if err != nil {
		return nil, func() {}, fmt.Errorf("creating %s: %w", path, err)
	}

	return f, func() { f.Close() }, nil
}
