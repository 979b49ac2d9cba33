//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/galewave/loudgate"
	"github.com/galewave/loudgate/internal/pcm"
)

var errNormalizeArgs = errors.New("expected exactly one argument: file path or \"-\" for stdin")

func normalizeCommand() *cli.Command {
	flags := append(pcmFormatFlags(), methodFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output path, or \"-\" for stdout",
			Value:   "-",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Report format: console, json, markdown",
			Value:   "console",
		},
	)

	return &cli.Command{
		Name:      "normalize",
		Usage:     "Apply the solved gain to raw PCM audio and write the result",
		ArgsUsage: "<file | ->",
		Flags:     flags,
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errNormalizeArgs, cmd.NArg())
			}

			pcmFormat, err := parsePCMFormat(cmd)
			if err != nil {
				return err
			}

			method, err := parseMethod(cmd)
			if err != nil {
				return err
			}

			inputPath := cmd.Args().First()

			reader, cleanupIn, err := openInput(inputPath)
			if err != nil {
				return err
			}
			defer cleanupIn()

			buf, err := pcm.Decode(reader, pcmFormat)
			if err != nil {
				return fmt.Errorf("decoding: %w", err)
			}

			analysis, err := loudgate.AnalyzeBuffer(buf, method)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			loudgate.ApplyGain(buf, analysis)

			writer, cleanupOut, err := createOutput(cmd.String("output"))
			if err != nil {
				return err
			}
			defer cleanupOut()

			if err = pcm.Encode(writer, buf, pcmFormat.BitDepth); err != nil {
				return fmt.Errorf("encoding: %w", err)
			}

			return outputAnalysis(reportObjectName(inputPath), analysis, cmd.String("format"), false)
		},
	}
}

func reportObjectName(path string) string {
	if path == "-" {
		return "stdin"
	}

	return path
}
