package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/loopplan/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name" yaml:"name"`
	Pass   bool     `json:"pass" yaml:"pass"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	GoldenUpdated bool `json:"golden_updated,omitempty" yaml:"golden_updated,omitempty"`
}

// TestResult aggregates the scenarios of one run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios" yaml:"scenarios"`
	Passed    int              `json:"passed" yaml:"passed"`
	Failed    int              `json:"failed" yaml:"failed"`
	Total     int              `json:"total" yaml:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run plan conformance scenarios",
		Long: `Run conformance scenarios using the harness framework.

Each scenario compiles a plan document with fixed worker counts and checks
assertions about the resulting plan or the rejection cause. When a
golden/<name>.golden file exists beside the scenarios, the plan snapshot
must match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  loopplan test ./scenarios
  loopplan test ./scenarios --filter "greedy_*"
  loopplan test ./scenarios --update
  loopplan test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files))}
	if len(files) == 0 && !formatter.Structured() {
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	for _, f := range files {
		sr := runScenario(f, opts.Update, formatter.VerboseLog)
		if !formatter.Structured() {
			printScenario(formatter, sr)
		}
		result.add(sr)
	}
	return reportTests(formatter, result)
}

func (r *TestResult) add(sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	r.Total++
	if sr.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// findScenarioFiles returns the scenario files in dir whose base name
// matches filter.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	files, err := harness.ScenarioFiles(dir)
	if err != nil || filter == "" {
		return files, err
	}

	var out []string
	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		matched, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, f)
		}
	}
	return out, nil
}

// runScenario loads, runs and snapshots one scenario file. With update set
// the snapshot replaces the golden file; otherwise an existing golden file
// must match it byte for byte.
func runScenario(path string, update bool, logf func(string, ...any)) ScenarioResult {
	failed := func(name string, errs ...string) ScenarioResult {
		return ScenarioResult{Name: name, Errors: errs}
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return failed(filepath.Base(path), fmt.Sprintf("failed to load scenario: %v", err))
	}
	logf("Running %s", scenario.Name)

	result, err := harness.Run(scenario)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}
	snapshot, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("snapshot failed: %v", err))
	}

	golden := filepath.Join(filepath.Dir(path), "golden", scenario.Name+".golden")
	if update {
		if err := writeGolden(golden, snapshot); err != nil {
			return failed(scenario.Name, err.Error())
		}
	} else if err := compareGolden(golden, snapshot); err != nil {
		return failed(scenario.Name, err.Error())
	}

	if !result.Pass {
		return failed(scenario.Name, result.Errors...)
	}
	return ScenarioResult{Name: scenario.Name, Pass: true, GoldenUpdated: update}
}

// compareGolden checks snapshot against the golden file at path. A missing
// golden file leaves the scenario to its assertions.
func compareGolden(path string, snapshot []byte) error {
	want, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return fmt.Errorf("golden comparison failed: %w", err)
	case !bytes.Equal(want, snapshot):
		return fmt.Errorf("plan does not match golden file %s (run with --update to regenerate)", filepath.Base(path))
	}
	return nil
}

func writeGolden(path string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, snapshot, 0644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

func printScenario(f *OutputFormatter, sr ScenarioResult) {
	if sr.Pass {
		note := ""
		if sr.GoldenUpdated {
			note = " (golden updated)"
		}
		fmt.Fprintf(f.Writer, "✓ %s%s\n", sr.Name, note)
		return
	}
	fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", e)
	}
}

// reportTests writes the run summary. Any failed scenario exits 1.
func reportTests(f *OutputFormatter, result TestResult) error {
	var failure error
	if result.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if f.Structured() {
		resp := CLIResponse{Status: "ok", Data: result}
		if failure != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeScenarioFailed, Message: failure.Error()}
		}
		if err := f.Encode(resp); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintf(f.Writer, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if failure == nil {
		fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	}
	return failure
}
