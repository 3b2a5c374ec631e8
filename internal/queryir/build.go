package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/joe/internal/ir"
	"github.com/roach88/joe/internal/record"
)

// Condition is one field=value filter. Path is a field name, or a dotted
// path through reference fields such as "created_by.name".
type Condition struct {
	Path  string
	Value any
}

// Build turns conditions on records of type t into a query.
//
// Values are coerced against the field signature and encoded the way
// record bodies are stored, so "2024-04-04T20:49:02+00:00" matches the
// stored timestamp and an integer matches a float field. A nil value
// matches null or absent fields. Conditions sharing a reference field
// are joined against one referenced record.
func Build(t *record.Type, conds []Condition, opts ...record.Option) (Query, error) {
	var preds []Predicate
	nested := make(map[string][]Condition)
	var order []string

	for _, c := range conds {
		head, rest, dotted := strings.Cut(c.Path, ".")
		f, ok := t.Field(head)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", t.Name, head)
		}
		if dotted {
			if _, seen := nested[head]; !seen {
				order = append(order, head)
			}
			nested[head] = append(nested[head], Condition{Path: rest, Value: c.Value})
			continue
		}
		value, err := literal(t, f, c.Value, opts)
		if err != nil {
			return nil, err
		}
		preds = append(preds, Equals{Field: head, Value: value})
	}

	var q Query = Select{Type: t.Name, Filter: conjunction(preds)}
	for _, head := range order {
		f, _ := t.Field(head)
		target, err := joinTarget(t, f, nested[head])
		if err != nil {
			return nil, err
		}
		right, err := Build(target, nested[head], opts...)
		if err != nil {
			return nil, err
		}
		q = Join{Left: q, Via: head, Right: right}
	}
	return q, nil
}

func literal(t *record.Type, f record.Field, raw any, opts []record.Option) (ir.IRValue, error) {
	if raw == nil {
		return ir.IRNull{}, nil
	}
	if c := record.Resolve(f.Sig).Container; c != record.ContainerNone {
		return nil, fmt.Errorf("%s.%s is a %s and cannot be compared", t.Name, f.Name, c)
	}
	v, err := record.Coerce(f.Name, raw, f.Sig, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
	}
	value, err := record.EncodeValue(v)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
	}
	switch value.(type) {
	case ir.IRArray, ir.IRObject:
		return nil, fmt.Errorf("%s.%s: cannot compare %T", t.Name, f.Name, value)
	}
	return value, nil
}

// joinTarget picks the referenced type that declares the field each
// condition starts with.
func joinTarget(t *record.Type, f record.Field, conds []Condition) (*record.Type, error) {
	targets := refTypes(f.Sig)
	if len(targets) == 0 {
		return nil, fmt.Errorf("%s.%s does not reference a record type", t.Name, f.Name)
	}
	for _, target := range targets {
		if declaresAll(target, conds) {
			return target, nil
		}
	}
	head, _, _ := strings.Cut(conds[0].Path, ".")
	return nil, fmt.Errorf("%s.%s: no referenced type has field %q", t.Name, f.Name, head)
}

func declaresAll(t *record.Type, conds []Condition) bool {
	for _, c := range conds {
		head, _, _ := strings.Cut(c.Path, ".")
		if _, ok := t.Field(head); !ok {
			return false
		}
	}
	return true
}

func conjunction(preds []Predicate) Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	return And{Predicates: preds}
}
