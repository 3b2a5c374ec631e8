package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/joe/internal/record"
	"github.com/roach88/joe/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// AssertionContext provides what assertions are evaluated against.
type AssertionContext struct {
	Store    *store.Store
	Universe *record.Universe
	Named    map[string]*record.Instance
	Ctx      context.Context
}

// EvaluateAssertions evaluates all assertions.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEqual:
			err = assertEqual(actx, assertion, true)
		case AssertNotEqual:
			err = assertEqual(actx, assertion, false)
		case AssertSame:
			err = assertSame(actx, assertion)
		case AssertUniverseSize:
			err = assertUniverseSize(actx, assertion)
		case AssertStoredCount:
			err = assertStoredCount(actx, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// resolveRecord follows a reference like "ticket.maneuver.mission": a
// step name, then record-valued fields.
func resolveRecord(named map[string]*record.Instance, ref string) (*record.Instance, error) {
	parts := strings.Split(ref, ".")
	in, ok := named[parts[0]]
	if !ok {
		return nil, fmt.Errorf("no record named %q", parts[0])
	}
	for _, field := range parts[1:] {
		child, ok := in.Child(field)
		if !ok {
			return nil, fmt.Errorf("%s: field %q does not hold a record", ref, field)
		}
		in = child
	}
	return in, nil
}

// assertEqual checks every listed record against the first with the
// structural equality oracle.
func assertEqual(actx *AssertionContext, assertion Assertion, want bool) error {
	first, err := resolveRecord(actx.Named, assertion.Records[0])
	if err != nil {
		return err
	}
	for _, ref := range assertion.Records[1:] {
		other, err := resolveRecord(actx.Named, ref)
		if err != nil {
			return err
		}
		if record.Equal(first, other) != want {
			verb := "equal"
			if !want {
				verb = "differ"
			}
			return &AssertionError{
				Type:     assertion.Type,
				Expected: fmt.Sprintf("%s and %s to %s", assertion.Records[0], ref, verb),
				Actual:   fmt.Sprintf("%s vs %s", first, other),
			}
		}
	}
	return nil
}

// assertSame checks that every listed record is the same consolidated
// instance.
func assertSame(actx *AssertionContext, assertion Assertion) error {
	first, err := resolveRecord(actx.Named, assertion.Records[0])
	if err != nil {
		return err
	}
	for _, ref := range assertion.Records[1:] {
		other, err := resolveRecord(actx.Named, ref)
		if err != nil {
			return err
		}
		if first != other {
			return &AssertionError{
				Type:     AssertSame,
				Expected: fmt.Sprintf("%s and %s to be one instance", assertion.Records[0], ref),
				Actual:   fmt.Sprintf("distinct instances %s and %s", first, other),
			}
		}
	}
	return nil
}

func assertUniverseSize(actx *AssertionContext, assertion Assertion) error {
	if got := actx.Universe.Len(); got != assertion.Count {
		return &AssertionError{
			Type:     AssertUniverseSize,
			Expected: fmt.Sprintf("%d canonical records", assertion.Count),
			Actual:   fmt.Sprintf("%d canonical records", got),
		}
	}
	return nil
}

func assertStoredCount(actx *AssertionContext, assertion Assertion) error {
	if actx.Store == nil {
		return fmt.Errorf("stored_count requires a store")
	}
	ids, err := actx.Store.List(actx.Ctx, assertion.RecordType)
	if err != nil {
		return err
	}
	if len(ids) != assertion.Count {
		return &AssertionError{
			Type:     AssertStoredCount,
			Expected: fmt.Sprintf("%d stored %s records", assertion.Count, assertion.RecordType),
			Actual:   fmt.Sprintf("%d stored: %v", len(ids), ids),
		}
	}
	return nil
}

// matchFields checks if actual contains all expected fields (subset match).
// Returns the first mismatching field in name order.
func matchFields(actual, expected map[string]any) (string, bool) {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		actualVal, exists := actual[key]
		if !exists || !valuesEqual(actualVal, expected[key]) {
			return key, false
		}
	}
	return "", true
}

// valuesEqual compares an encoded value with a YAML-parsed expectation.
// Numbers compare by value regardless of integer or float representation.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	if a, ok := toFloat(actual); ok {
		e, ok := toFloat(expected)
		return ok && a == e
	}

	switch exp := expected.(type) {
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !valuesEqual(act[i], exp[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		_, ok = matchFields(act, exp)
		return ok
	}

	return reflect.DeepEqual(actual, expected)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
