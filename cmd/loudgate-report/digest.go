package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from a loudgate JSONL report",
		ArgsUsage: "<report.jsonl>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("expected exactly one argument: path to report.jsonl")
			}

			return runDigest(cmd.Args().First())
		},
	}
}

func runDigest(reportPath string) error {
	records, err := readRecords(reportPath)
	if err != nil {
		return err
	}

	printDigest(records)

	return nil
}

func readRecords(path string) ([]digestRecord, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var records []digestRecord

	scanner := bufio.NewScanner(file)

	const maxLineSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		var rec digestRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	return records, nil
}

// lufsBucket labels a loudness value per the EBU R128 streaming targets
// commonly used as reference points (-23 broadcast, -14 streaming).
func lufsBucket(lufs float64) string {
	switch {
	case lufs <= -24:
		return "very quiet (<=-24 LUFS)"
	case lufs <= -16:
		return "quiet (-24..-16 LUFS)"
	case lufs <= -10:
		return "target range (-16..-10 LUFS)"
	default:
		return "loud (>-10 LUFS)"
	}
}

func printDigest(records []digestRecord) {
	total := len(records)
	failed := 0
	bucketDist := map[string]int{}
	spotsFlagged := 0

	var sumLUFS, sumGain float64

	analyzed := 0

	for _, rec := range records {
		if rec.Error != "" || rec.Result == nil {
			failed++

			continue
		}

		analyzed++
		bucketDist[lufsBucket(rec.Result.IntegratedLUFS)]++
		sumLUFS += rec.Result.IntegratedLUFS
		sumGain += rec.Result.RequiredGainDB

		if rec.Result.Preview.ProblemSpotCount > 0 {
			spotsFlagged++
		}
	}

	fmt.Println("=== Loudgate Report Digest ===")
	fmt.Println()
	fmt.Printf("Total tracks:  %d\n", total)
	fmt.Printf("Failed:        %d\n", failed)
	fmt.Printf("Analyzed:      %d\n", analyzed)
	fmt.Println()

	if analyzed > 0 {
		fmt.Printf("Average integrated loudness: %.1f LUFS\n", sumLUFS/float64(analyzed))
		fmt.Printf("Average required gain:       %.2f dB\n", sumGain/float64(analyzed))
		fmt.Printf("Tracks with problem spots:   %d\n", spotsFlagged)
		fmt.Println()
	}

	fmt.Println("--- Loudness Distribution ---")

	for _, bucket := range []string{
		"very quiet (<=-24 LUFS)",
		"quiet (-24..-16 LUFS)",
		"target range (-16..-10 LUFS)",
		"loud (>-10 LUFS)",
	} {
		if count := bucketDist[bucket]; count > 0 {
			fmt.Printf("  %-32s %d\n", bucket, count)
		}
	}
}
