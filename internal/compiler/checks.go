package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/joe/internal/record"
)

// compileCheck compiles one check declaration. A declaration is a struct
// with exactly one key naming the check kind; positive expands to one
// check per listed field.
func compileCheck(v cue.Value, field string, t *record.Type, funcs map[string]record.Check) ([]record.Check, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var kinds []string
	var body cue.Value
	for iter.Next() {
		kinds = append(kinds, iter.Label())
		body = iter.Value()
	}
	if len(kinds) != 1 {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("check must have exactly one kind, got %d", len(kinds)),
			Pos:     v.Pos(),
		}
	}
	kind := kinds[0]
	field = field + "." + kind

	known := func(names ...string) error {
		for _, name := range names {
			if _, ok := t.Field(name); !ok {
				return &CompileError{
					Field:   field,
					Message: fmt.Sprintf("unknown field %q", name),
					Pos:     body.Pos(),
				}
			}
		}
		return nil
	}

	switch kind {
	case "bound":
		name, err := requiredString(body, "field", field)
		if err != nil {
			return nil, err
		}
		if err := known(name); err != nil {
			return nil, err
		}
		min, err := optionalFloat(body, "min")
		if err != nil {
			return nil, err
		}
		max, err := optionalFloat(body, "max")
		if err != nil {
			return nil, err
		}
		if min == nil && max == nil {
			return nil, &CompileError{Field: field, Message: "bound needs min or max", Pos: body.Pos()}
		}
		return []record.Check{record.Bound(name, min, max)}, nil

	case "positive":
		names, err := stringList(body)
		if err != nil {
			return nil, err
		}
		if err := known(names...); err != nil {
			return nil, err
		}
		checks := make([]record.Check, 0, len(names))
		for _, name := range names {
			zero := 0.0
			checks = append(checks, record.Bound(name, &zero, nil))
		}
		return checks, nil

	case "choice":
		name, err := requiredString(body, "field", field)
		if err != nil {
			return nil, err
		}
		if err := known(name); err != nil {
			return nil, err
		}
		values, err := stringList(body.LookupPath(cue.ParsePath("values")))
		if err != nil {
			return nil, err
		}
		return []record.Check{record.Choice(name, values...)}, nil

	case "one_of", "all_or_none":
		names, err := stringList(body)
		if err != nil {
			return nil, err
		}
		if len(names) < 2 {
			return nil, &CompileError{Field: field, Message: "needs at least two fields", Pos: body.Pos()}
		}
		if err := known(names...); err != nil {
			return nil, err
		}
		if kind == "one_of" {
			return []record.Check{record.OneOf(names...)}, nil
		}
		return []record.Check{record.AllOrNone(names...)}, nil

	case "length":
		name, err := requiredString(body, "field", field)
		if err != nil {
			return nil, err
		}
		if err := known(name); err != nil {
			return nil, err
		}
		n, err := body.LookupPath(cue.ParsePath("n")).Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return []record.Check{record.Length(name, int(n))}, nil

	case "func":
		name, err := body.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		chk, ok := funcs[name]
		if !ok {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("no check registered as %q", name),
				Pos:     body.Pos(),
			}
		}
		if chk.Field != "" {
			if err := known(chk.Field); err != nil {
				return nil, err
			}
		}
		return []record.Check{chk}, nil
	}

	return nil, &CompileError{
		Field:   field,
		Message: fmt.Sprintf("unknown check kind %q", kind),
		Pos:     v.Pos(),
	}
}

func optionalFloat(v cue.Value, key string) (*float64, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return nil, nil
	}
	f, err := val.Float64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return &f, nil
}

func stringList(v cue.Value) ([]string, error) {
	list, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for list.Next() {
		s, err := list.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}
