package record

import "fmt"

// Fixtures returns the raw fixture set of t: the Cartesian product of the
// representative values of every field, in field order with the last field
// varying fastest. A field's representatives are null when it is nullable,
// then every member value when it is an enumeration, otherwise the type's
// example value.
func Fixtures(t *Type) ([]map[string]any, error) {
	return fixtures(t, func(f Field, ex any) (any, error) { return ex, nil }, false)
}

// TypedFixtures returns the same product as Fixtures with every value
// already coerced: timestamps parsed, enumerations resolved and nested
// records constructed.
func TypedFixtures(t *Type, opts ...Option) ([]map[string]any, error) {
	return fixtures(t, func(f Field, ex any) (any, error) {
		return Coerce(f.Name, ex, f.Sig, opts...)
	}, true)
}

func fixtures(t *Type, convert func(Field, any) (any, error), typed bool) ([]map[string]any, error) {
	fields := t.AllFields()
	choices := make([][]any, len(fields))

	for i, f := range fields {
		s := Resolve(f.Sig)
		var vals []any
		if s.Nullable {
			vals = append(vals, nil)
		}
		if e, ok := s.soleEnum(); ok {
			for _, m := range e.Members {
				if typed {
					vals = append(vals, m)
				} else {
					vals = append(vals, m.Value)
				}
			}
			choices[i] = vals
			continue
		}

		ex, ok := t.Example[f.Name]
		if !ok && f.HasDefault {
			ex, ok = f.Default, true
		}
		switch {
		case ok && ex != nil:
			v, err := convert(f, ex)
			if err != nil {
				return nil, fmt.Errorf("fixture %s.%s: %w", t.Name, f.Name, err)
			}
			vals = append(vals, v)
		case !s.Nullable:
			return nil, fmt.Errorf("fixture %s.%s: no example value for required field", t.Name, f.Name)
		}
		choices[i] = vals
	}

	return product(fields, choices), nil
}

func product(fields []Field, choices [][]any) []map[string]any {
	out := []map[string]any{{}}
	for i, f := range fields {
		next := make([]map[string]any, 0, len(out)*len(choices[i]))
		for _, partial := range out {
			for _, v := range choices[i] {
				m := make(map[string]any, len(partial)+1)
				for k, pv := range partial {
					m[k] = pv
				}
				m[f.Name] = v
				next = append(next, m)
			}
		}
		out = next
	}
	return out
}

// FixtureCount returns the size of the fixture product of t without
// building it. Types with many nullable fields grow exponentially.
func FixtureCount(t *Type) int {
	n := 1
	for _, f := range t.AllFields() {
		s := Resolve(f.Sig)
		c := 0
		if s.Nullable {
			c++
		}
		if e, ok := s.soleEnum(); ok {
			c += len(e.Members)
		} else if ex, ok := t.Example[f.Name]; ok && ex != nil {
			c++
		} else if !ok && f.HasDefault && f.Default != nil {
			c++
		}
		n *= c
	}
	return n
}
