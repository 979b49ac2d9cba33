//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/galewave/loudgate"
)

var errMeasureArgs = errors.New("expected exactly one argument: file path or \"-\" for stdin")

func measureCommand() *cli.Command {
	flags := append(pcmFormatFlags(), methodFlags()...)
	flags = append(flags,
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
		Name:      "measure",
		Usage:     "Measure loudness and required gain for raw PCM audio",
		ArgsUsage: "<file | ->",
		Flags:     flags,
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errMeasureArgs, cmd.NArg())
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

			reader, cleanup, err := openInput(inputPath)
			if err != nil {
				return err
			}
			defer cleanup()

			analysis, err := loudgate.Analyze(reader, pcmFormat, method)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			return outputAnalysis(inputPath, analysis, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}
