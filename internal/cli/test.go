package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/joe/internal/compiler"
	"github.com/roach88/joe/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult is the payload of the test command.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run construction scenarios",
		Long: `Run scenario files against the record declarations.

Each scenario constructs and decodes records with deterministic ids and
timestamps, checks every step against its expectations and evaluates its
assertions. When golden/<scenario>.golden exists next to a scenario file
the step trace must match it byte for byte. Scenarios run in parallel;
results are reported in file order.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  joe test ./scenarios
  joe test ./scenarios --filter "orbit-*"
  joe test ./scenarios --update
  joe test ./scenarios/orbit.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only scenarios whose file name matches this glob")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, path string) error {
	files, err := harness.FindScenarios(path)
	if err != nil {
		var notFound *harness.ScenarioNotFoundError
		if errors.As(err, &notFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("scenarios not found: %s", path))
		}
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if files, err = filterScenarios(files, opts.Filter); err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	reg, err := opts.registry()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load declarations", err)
	}

	formatter := opts.formatter(cmd)
	if len(files) == 0 && !formatter.json() {
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	result := TestResult{Scenarios: runScenarios(files, reg, opts.Update), Total: len(files)}
	for _, r := range result.Scenarios {
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	formatter.VerboseLog("%d scenario(s) from %s", result.Total, path)

	if err := writeTestResult(formatter, result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// filterScenarios keeps the files whose base name without extension
// matches the glob.
func filterScenarios(files []string, glob string) ([]string, error) {
	if glob == "" {
		return files, nil
	}
	var kept []string
	for _, file := range files {
		ok, err := filepath.Match(glob, scenarioStem(file))
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			kept = append(kept, file)
		}
	}
	return kept, nil
}

func scenarioStem(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// runScenarios runs every file in parallel. Each scenario owns its store,
// universe and golden file, so runs share nothing but reg.
func runScenarios(files []string, reg *compiler.Registry, update bool) []ScenarioResult {
	results := make([]ScenarioResult, len(files))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			results[i] = runScenario(file, reg, update)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func runScenario(file string, reg *compiler.Registry, update bool) ScenarioResult {
	failed := func(name, format string, args ...any) ScenarioResult {
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf(format, args...)}}
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return failed(filepath.Base(file), "failed to load scenario: %v", err)
	}
	name := scenario.Name

	run, err := harness.Run(scenario, reg)
	if err != nil {
		return failed(name, "execution failed: %v", err)
	}
	snapshot, err := harness.Snapshot(name, run)
	if err != nil {
		return failed(name, "failed to snapshot trace: %v", err)
	}

	golden := filepath.Join(filepath.Dir(file), "golden", scenarioStem(file)+".golden")
	if update {
		if err := writeGolden(golden, snapshot); err != nil {
			return failed(name, "failed to update golden file: %v", err)
		}
	} else {
		want, err := os.ReadFile(golden)
		switch {
		case err == nil && !bytes.Equal(want, snapshot):
			return failed(name, "trace does not match golden file (run with --update to regenerate)")
		case err != nil && !os.IsNotExist(err):
			return failed(name, "golden comparison failed: %v", err)
		}
	}

	if !run.Pass {
		return ScenarioResult{Name: name, Errors: run.Errors}
	}
	return ScenarioResult{Name: name, Pass: true}
}

func writeGolden(path string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	return os.WriteFile(path, snapshot, 0644)
}

// writeTestResult reports the run. In JSON mode a failed run keeps its
// payload alongside the error.
func writeTestResult(f *OutputFormatter, result TestResult) error {
	if f.json() {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeScenariosFailed,
				Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
			}
		}
		return f.envelope(resp)
	}

	return f.Render(result, func(w io.Writer) {
		for _, r := range result.Scenarios {
			if r.Pass {
				fmt.Fprintf(w, "✓ %s\n", r.Name)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", r.Name)
			for _, msg := range r.Errors {
				fmt.Fprintf(w, "  %s\n", msg)
			}
		}
		fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if result.Failed == 0 {
			fmt.Fprintln(w, "✓ All scenarios passed")
		}
	})
}
