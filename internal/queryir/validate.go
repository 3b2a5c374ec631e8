package queryir

import (
	"fmt"

	"github.com/roach88/joe/internal/ir"
	"github.com/roach88/joe/internal/record"
)

// Lookup resolves a record type by name.
type Lookup func(name string) (*record.Type, bool)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// Valid is true when the query can be compiled and run.
	Valid bool

	// Errors describes each problem, in traversal order.
	Errors []string
}

// Err returns the first problem as an error, or nil.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid query: %s", r.Errors[0])
}

// Validate checks a query against the record types it names:
//  1. Every type exists
//  2. Every filtered field exists and holds a scalar
//  3. No literal is a list or mapping
//  4. Every join follows a field that references the joined type
//
// Validate is a pure function with no side effects.
func Validate(query Query, lookup Lookup) ValidationResult {
	v := &validator{
		lookup: lookup,
		errors: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		Valid:  len(v.errors) == 0,
		Errors: v.errors,
	}
}

// validator accumulates errors during traversal.
type validator struct {
	lookup Lookup
	errors []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

// validateQuery recursively validates a query node.
func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addError("nil query")
		return
	}

	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	case Join:
		v.validateJoin(query)
	case *Join:
		v.validateJoin(*query)
	default:
		v.addError("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	t, ok := v.lookup(sel.Type)
	if !ok {
		v.addError("unknown record type %q", sel.Type)
		return
	}
	if sel.Filter != nil {
		v.validatePredicate(t, sel.Filter)
	}
}

func (v *validator) validateJoin(join Join) {
	v.validateQuery(join.Left)
	v.validateQuery(join.Right)

	left, ok := v.lookup(RecordType(join.Left))
	if !ok {
		return // already reported
	}
	f, ok := left.Field(join.Via)
	if !ok {
		v.addError("%s has no field %q", left.Name, join.Via)
		return
	}
	target := RecordType(join.Right)
	for _, name := range RefTargets(f.Sig) {
		if name == target {
			return
		}
	}
	v.addError("%s.%s does not reference %s", left.Name, join.Via, target)
}

// validatePredicate recursively validates a predicate node against t.
func (v *validator) validatePredicate(t *record.Type, p Predicate) {
	switch pred := p.(type) {
	case nil:
		// no filter
	case Equals:
		v.validateEquals(t, pred)
	case *Equals:
		v.validateEquals(t, *pred)
	case And:
		v.validateAnd(t, pred)
	case *And:
		v.validateAnd(t, *pred)
	default:
		v.addError("unknown predicate type: %T", p)
	}
}

func (v *validator) validateEquals(t *record.Type, eq Equals) {
	f, ok := t.Field(eq.Field)
	if !ok {
		v.addError("%s has no field %q", t.Name, eq.Field)
		return
	}
	if c := record.Resolve(f.Sig).Container; c != record.ContainerNone {
		v.addError("%s.%s is a %s and cannot be compared", t.Name, eq.Field, c)
		return
	}
	switch eq.Value.(type) {
	case nil:
		v.addError("%s.%s compared to a nil value", t.Name, eq.Field)
	case ir.IRArray, ir.IRObject:
		v.addError("%s.%s compared to a %T", t.Name, eq.Field, eq.Value)
	}
}

func (v *validator) validateAnd(t *record.Type, and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(t, sub)
	}
}

// RefTargets returns the names of the record types sig references,
// directly or as list, tuple or mapping elements, in declaration order.
func RefTargets(sig record.Signature) []string {
	types := refTypes(sig)
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return names
}

func refTypes(sig record.Signature) []*record.Type {
	var types []*record.Type
	seen := make(map[string]bool)
	add := func(r record.Ref) {
		if r.Type != nil && !seen[r.Type.Name] {
			seen[r.Type.Name] = true
			types = append(types, r.Type)
		}
	}
	var walk func(record.Signature)
	walk = func(s record.Signature) {
		shape := record.Resolve(s)
		switch shape.Container {
		case record.ContainerNone:
			for _, a := range shape.Accepted {
				if r, ok := a.(record.Ref); ok {
					add(r)
				} else if record.Resolve(a).Container != record.ContainerNone {
					walk(a)
				}
			}
		case record.ContainerMapping:
			if len(shape.Accepted) == 2 {
				walk(shape.Accepted[1])
			}
		default:
			for _, a := range shape.Accepted {
				walk(a)
			}
		}
	}
	walk(sig)
	return types
}
