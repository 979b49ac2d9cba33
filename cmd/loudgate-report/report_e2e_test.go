package main_test

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"

	"github.com/farcloser/agar/pkg/agar"
)

// binaryPath locates the prebuilt loudgate-report binary relative to this
// test file, mirroring the teacher's tests/testutils.Setup convention.
func binaryPath() string {
	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // runtime.Caller returns 4 values, only file is needed
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))

	return filepath.Join(projectRoot, "bin", "loudgate-report")
}

// TestReportCLI is a smoke test driving the built loudgate-report binary
// against a generated fixture folder: a real end-to-end path the
// package-level DSP tests don't exercise (CLI argument parsing, the
// worker-pool scan, and JSONL+gzip report emission).
func TestReportCLI(t *testing.T) {
	testCase := agar.Setup(binaryPath())

	testCase.SubTests = []*test.Case{
		{
			Description: "report without arguments fails",
			Command:     test.Command("report"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "report on a folder with one fixture finds and measures it",
			Setup: func(data test.Data, helpers test.Helpers) {
				dir := data.TempDir()
				agar.Genuine16bit44k(data, helpers)
				data.Labels().Set("dir", dir)
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("report", "--workers", "1", data.Labels().Get("dir"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectContains("Analyzed:"),
				}
			},
		},
	}

	testCase.Run(t)
}

func expectContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !strings.Contains(stdout, substr) {
			testing.Log("expected substring " + substr + " not found in output:\n" + stdout)
			testing.Fail()
		}
	}
}
