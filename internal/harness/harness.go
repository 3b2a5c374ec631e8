package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/joe/internal/compiler"
	"github.com/roach88/joe/internal/ir"
	"github.com/roach88/joe/internal/record"
	"github.com/roach88/joe/internal/store"
	"github.com/roach88/joe/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs steps with deterministic identifiers and clock.
type Harness struct {
	registry *compiler.Registry
	store    *store.Store
	universe *record.Universe
	clock    *testutil.LogicalClock
	ids      *testutil.SequentialIDs
	logger   *slog.Logger
	named    map[string]*record.Instance
}

// Run executes a scenario against reg and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database and consolidation universe
// 2. Execute steps, checking each against its expect clause
// 3. Evaluate assertions
// 4. Return result with pass/fail, trace, and errors
//
// The returned error is reserved for scenarios that cannot run at all
// (unknown type or template, store failure); construction failures are
// part of the result.
func Run(scenario *Scenario, reg *compiler.Registry) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		registry: reg,
		store:    st,
		universe: record.NewUniverse(),
		clock:    testutil.NewLogicalClock(),
		ids:      testutil.NewSequentialIDs(scenario.IDPrefix),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		named:    make(map[string]*record.Instance),
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{
		Store:    st,
		Universe: h.universe,
		Named:    h.named,
		Ctx:      ctx,
	}
	for _, errMsg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep builds one record and records the outcome.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	t, ok := h.registry.Lookup(step.TypeName())
	if !ok {
		return fmt.Errorf("unknown record type %q", step.TypeName())
	}

	event := StepEvent{
		Step: i,
		Op:   step.Op(),
		Type: t.Name,
		Name: step.As,
	}

	var warnings []record.Warning
	opts := []record.Option{
		record.WithUniverse(h.universe),
		record.WithLogger(h.logger),
		record.WithIDs(h.ids.Next),
		record.WithClock(h.clock.Now),
		record.WithWarnings(func(w record.Warning) { warnings = append(warnings, w) }),
	}

	var in *record.Instance
	var err error
	switch step.Op() {
	case OpConstruct:
		raw := step.Input
		if step.Template != "" {
			raw, err = h.registry.Instantiate(t.Name, step.Template, step.Input)
			if err != nil {
				return err
			}
		}
		if raw == nil {
			raw = map[string]any{}
		}
		in, err = record.Construct(t, raw, opts...)
	case OpDecode:
		in, err = record.Decode(t, []byte(step.JSON), opts...)
	}

	for _, w := range warnings {
		event.Warnings = append(event.Warnings, w.String())
	}

	if err != nil {
		event.Error = stepError(err)
	} else {
		body, encErr := record.Encode(in)
		if encErr != nil {
			return fmt.Errorf("encode %s: %w", t.Name, encErr)
		}
		event.Record, _ = ir.ToAny(body).(map[string]any)
		if step.As != "" {
			h.named[step.As] = in
		}
		if step.Put {
			n, putErr := h.store.Put(ctx, in)
			if putErr != nil {
				return putErr
			}
			event.Stored = n
		}
	}

	result.AddStep(event)
	for _, msg := range checkExpect(step.Expect, event) {
		result.AddError(fmt.Sprintf("step %d (%s %s): %s", i, event.Op, event.Type, msg))
	}

	h.logger.Info("step completed",
		"step", i,
		"op", event.Op,
		"type", event.Type,
		"failed", event.Error != nil,
	)
	return nil
}

func stepError(err error) *StepError {
	var re *record.Error
	if !errors.As(err, &re) {
		return &StepError{Code: "ERROR", Message: err.Error()}
	}
	return &StepError{
		Code:    string(re.Code),
		Path:    re.Path,
		Check:   re.Check,
		Message: re.Message,
	}
}

// checkExpect compares a step event with its expect clause and returns a
// message per mismatch.
func checkExpect(expect *Expect, event StepEvent) []string {
	var msgs []string

	if expect == nil || expect.Error == "" {
		if event.Error != nil {
			msgs = append(msgs, fmt.Sprintf("unexpected error %s at %q: %s",
				event.Error.Code, event.Error.Path, event.Error.Message))
			return msgs
		}
	} else {
		if event.Error == nil {
			return append(msgs, fmt.Sprintf("expected error %s, construction succeeded", expect.Error))
		}
		if event.Error.Code != expect.Error {
			msgs = append(msgs, fmt.Sprintf("error code = %s, want %s", event.Error.Code, expect.Error))
		}
		if expect.Path != "" && event.Error.Path != expect.Path {
			msgs = append(msgs, fmt.Sprintf("error path = %q, want %q", event.Error.Path, expect.Path))
		}
		if expect.Check != "" && event.Error.Check != expect.Check {
			msgs = append(msgs, fmt.Sprintf("error check = %q, want %q", event.Error.Check, expect.Check))
		}
	}

	if expect == nil {
		return msgs
	}

	if expect.Warnings != nil && len(event.Warnings) != *expect.Warnings {
		msgs = append(msgs, fmt.Sprintf("warnings = %d, want %d", len(event.Warnings), *expect.Warnings))
	}

	if len(expect.Fields) > 0 {
		if event.Record == nil {
			msgs = append(msgs, "expected fields but no record was built")
		} else if field, ok := matchFields(event.Record, expect.Fields); !ok {
			msgs = append(msgs, fmt.Sprintf("field %q = %v, want %v",
				field, event.Record[field], expect.Fields[field]))
		}
	}

	return msgs
}
