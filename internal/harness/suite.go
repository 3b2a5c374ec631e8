package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/joe/internal/compiler"
)

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// FindScenarios returns the scenario files at path. A file is returned as
// is; a directory yields its .yaml and .yml files (non-recursive), sorted.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &ScenarioNotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	files := []string{}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// SuiteResult contains results from running a set of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a failed scenario.
type ScenarioFailure struct {
	ScenarioPath string   `json:"scenario_path"`
	Scenario     string   `json:"scenario,omitempty"`
	Errors       []string `json:"errors"`
}

// RunSuite loads and runs every scenario at path against reg.
//
// For each scenario file:
// 1. Load and validate the YAML
// 2. Run it via Run
// 3. Collect pass/fail
//
// Scenarios run concurrently, each against its own store and universe;
// failures are reported in file order. A scenario that fails to load or
// run counts as failed; RunSuite itself only errors when path cannot be
// read.
func RunSuite(path string, reg *compiler.Registry) (*SuiteResult, error) {
	files, err := FindScenarios(path)
	if err != nil {
		return nil, err
	}

	outcomes := make([]ScenarioFailure, len(files))
	passed := make([]bool, len(files))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			outcomes[i].ScenarioPath = file

			scenario, err := LoadScenario(file)
			if err != nil {
				outcomes[i].Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
				return nil
			}
			outcomes[i].Scenario = scenario.Name

			run, err := Run(scenario, reg)
			if err != nil {
				outcomes[i].Errors = []string{fmt.Sprintf("scenario execution failed: %v", err)}
				return nil
			}
			if !run.Pass {
				outcomes[i].Errors = run.Errors
				return nil
			}
			passed[i] = true
			return nil
		})
	}
	_ = g.Wait() // scenario failures are collected, never returned

	result := &SuiteResult{Total: len(files)}
	for i, ok := range passed {
		if ok {
			result.Passed++
			continue
		}
		result.fail(outcomes[i].ScenarioPath, outcomes[i].Scenario, outcomes[i].Errors...)
	}
	return result, nil
}

func (r *SuiteResult) fail(path, name string, errs ...string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{
		ScenarioPath: path,
		Scenario:     name,
		Errors:       errs,
	})
}
