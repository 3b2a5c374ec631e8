package record

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Check is a named invariant over a fully coerced instance. Field names
// the field a failure is attributed to and may be empty for checks that
// span several fields.
type Check struct {
	Name  string
	Field string
	Func  func(*Instance) error
}

// Validate runs every check of the instance's type in declared order and
// returns the first failure.
func Validate(in *Instance) error {
	return dispatch("", in)
}

func dispatch(path string, in *Instance) error {
	for _, chk := range in.Type.Checks {
		err := chk.Func(in)
		if err == nil {
			continue
		}
		var value any
		if chk.Field != "" {
			value = in.values[chk.Field]
		}
		return &Error{
			Code:    ErrCodeValidationFailed,
			Path:    joinPath(path, chk.Field),
			Value:   value,
			Type:    in.Type.Name,
			Check:   chk.Name,
			Message: err.Error(),
			Err:     err,
		}
	}
	return nil
}

// Bound requires a numeric field to lie within [min, max]. A nil bound is
// open. Null passes.
func Bound(field string, min, max *float64) Check {
	return Check{
		Name:  "bound:" + field,
		Field: field,
		Func: func(in *Instance) error {
			if in.IsNull(field) {
				return nil
			}
			v, ok := in.Float(field)
			if !ok {
				return fmt.Errorf("%s is not numeric", field)
			}
			if (min != nil && v < *min) || (max != nil && v > *max) {
				return fmt.Errorf("%s must be within %s, got %v", field, boundText(min, max), v)
			}
			return nil
		},
	}
}

func boundText(min, max *float64) string {
	lo, hi := "-inf", "+inf"
	if min != nil {
		lo = fmt.Sprint(*min)
	}
	if max != nil {
		hi = fmt.Sprint(*max)
	}
	return "[" + lo + ", " + hi + "]"
}

// Choice requires a text field to hold one of values. Null passes.
func Choice(field string, values ...string) Check {
	return Check{
		Name:  "choice:" + field,
		Field: field,
		Func: func(in *Instance) error {
			if in.IsNull(field) {
				return nil
			}
			v, _ := in.Get(field)
			if s, ok := v.(string); ok && slices.Contains(values, s) {
				return nil
			}
			return fmt.Errorf("%s must be one of %s, got %v", field, strings.Join(values, ", "), v)
		},
	}
}

// OneOf requires at least one of fields to be set.
func OneOf(fields ...string) Check {
	return Check{
		Name: "one_of:" + strings.Join(fields, ","),
		Func: func(in *Instance) error {
			for _, f := range fields {
				if !in.IsNull(f) {
					return nil
				}
			}
			return fmt.Errorf("one of %s must be set", strings.Join(fields, ", "))
		},
	}
}

// AllOrNone requires fields to be either all set or all null.
func AllOrNone(fields ...string) Check {
	return Check{
		Name: "all_or_none:" + strings.Join(fields, ","),
		Func: func(in *Instance) error {
			set := 0
			for _, f := range fields {
				if !in.IsNull(f) {
					set++
				}
			}
			if set != 0 && set != len(fields) {
				return fmt.Errorf("%s must be set together", strings.Join(fields, ", "))
			}
			return nil
		},
	}
}

// Length requires a list or tuple field to hold exactly n elements.
// Null passes.
func Length(field string, n int) Check {
	return Check{
		Name:  "length:" + field,
		Field: field,
		Func: func(in *Instance) error {
			if in.IsNull(field) {
				return nil
			}
			v, _ := in.Get(field)
			items, ok := v.([]any)
			if !ok {
				return fmt.Errorf("%s is not a sequence", field)
			}
			if len(items) != n {
				return fmt.Errorf("%s must have %d elements, got %d", field, n, len(items))
			}
			return nil
		},
	}
}

// Predicate wraps an arbitrary condition. condition describes what must
// hold and becomes the failure message.
func Predicate(name, field, condition string, fn func(*Instance) bool) Check {
	return Check{
		Name:  name,
		Field: field,
		Func: func(in *Instance) error {
			if fn(in) {
				return nil
			}
			return errors.New(condition)
		},
	}
}
