package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/joe/internal/compiler"
	"github.com/roach88/joe/internal/ir"
)

// goldenDir holds the harness's own golden traces, relative to the test.
const goldenDir = "testdata/golden"

// Snapshot renders a result's trace as canonical JSON:
//
//	{"scenario_name": name, "trace": [event, ...]}
//
// Events leave out empty fields, so a trace only changes when the
// outcome of a step does.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, event := range result.Trace {
		trace[i] = event.plain()
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"trace":         trace,
	})
}

// plain converts the event into the plain values ir.FromAny accepts.
func (e StepEvent) plain() map[string]any {
	m := map[string]any{"step": e.Step, "op": e.Op, "type": e.Type}
	if e.Name != "" {
		m["name"] = e.Name
	}
	if e.Record != nil {
		m["record"] = e.Record
	}
	if e.Error != nil {
		m["error"] = e.Error.plain()
	}
	if len(e.Warnings) > 0 {
		warnings := make([]any, len(e.Warnings))
		for i, w := range e.Warnings {
			warnings[i] = w
		}
		m["warnings"] = warnings
	}
	if e.Stored != 0 {
		m["stored"] = e.Stored
	}
	return m
}

func (e *StepError) plain() map[string]any {
	m := map[string]any{"code": e.Code, "message": e.Message}
	if e.Path != "" {
		m["path"] = e.Path
	}
	if e.Check != "" {
		m["check"] = e.Check
	}
	return m
}

// RunWithGolden runs scenario and compares its trace with
// testdata/golden/<name>.golden. Regenerate with -update:
//
//	go test ./internal/harness -update
//
// A mismatch fails t through goldie; the error is reserved for scenarios
// that cannot run.
func RunWithGolden(t *testing.T, scenario *Scenario, reg *compiler.Registry) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, reg)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with its golden trace.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	goldie.New(t,
		goldie.WithFixtureDir(goldenDir),
		goldie.WithNameSuffix(".golden"),
	).Assert(t, name, snapshot)
	return nil
}
