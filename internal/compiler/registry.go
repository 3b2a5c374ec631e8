package compiler

import (
	"fmt"
	"maps"
	"sort"

	"github.com/roach88/joe/internal/record"
)

// Registry holds the compiled record types, enumerations and named
// templates of one declaration set. Types keep declaration order.
type Registry struct {
	types     map[string]*record.Type
	order     []string
	enums     map[string]*record.Enum
	enumOrder []string
	templates map[string]map[string]map[string]any
}

func newRegistry() *Registry {
	return &Registry{
		types:     make(map[string]*record.Type),
		enums:     make(map[string]*record.Enum),
		templates: make(map[string]map[string]map[string]any),
	}
}

func (r *Registry) addType(t *record.Type) {
	r.types[t.Name] = t
	r.order = append(r.order, t.Name)
}

func (r *Registry) addEnum(e *record.Enum) {
	r.enums[e.Name] = e
	r.enumOrder = append(r.enumOrder, e.Name)
}

func (r *Registry) addTemplate(typeName, name string, values map[string]any) {
	named, ok := r.templates[typeName]
	if !ok {
		named = make(map[string]map[string]any)
		r.templates[typeName] = named
	}
	named[name] = values
}

// resolve satisfies Resolver: enumerations resolve to themselves and
// record types to a reference. The referenced type may still be a shell
// during the first compile pass.
func (r *Registry) resolve(name string) (record.Signature, bool) {
	if e, ok := r.enums[name]; ok {
		return e, true
	}
	if t, ok := r.types[name]; ok {
		return record.Ref{Type: t}, true
	}
	return nil, false
}

// Lookup returns the record type with the given name.
func (r *Registry) Lookup(name string) (*record.Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Types returns every record type in declaration order.
func (r *Registry) Types() []*record.Type {
	out := make([]*record.Type, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name])
	}
	return out
}

// Enum returns the enumeration with the given name.
func (r *Registry) Enum(name string) (*record.Enum, bool) {
	e, ok := r.enums[name]
	return e, ok
}

// Enums returns every enumeration in declaration order.
func (r *Registry) Enums() []*record.Enum {
	out := make([]*record.Enum, 0, len(r.enumOrder))
	for _, name := range r.enumOrder {
		out = append(out, r.enums[name])
	}
	return out
}

// Template returns a copy of the named partial field set for typeName.
func (r *Registry) Template(typeName, name string) (map[string]any, bool) {
	values, ok := r.templates[typeName][name]
	if !ok {
		return nil, false
	}
	return maps.Clone(values), true
}

// Templates returns the sorted template names declared for typeName.
func (r *Registry) Templates(typeName string) []string {
	names := make([]string, 0, len(r.templates[typeName]))
	for name := range r.templates[typeName] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate returns the raw field set for a new typeName record: the
// type's example, overlaid by the named template (if any), overlaid by
// overrides. Base fields are dropped so the caller assigns fresh ones.
func (r *Registry) Instantiate(typeName, template string, overrides map[string]any) (map[string]any, error) {
	t, ok := r.types[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", typeName)
	}
	out := maps.Clone(t.Example)
	if out == nil {
		out = make(map[string]any)
	}
	for _, base := range record.BaseFields() {
		delete(out, base.Name)
	}
	if template != "" {
		values, ok := r.templates[typeName][template]
		if !ok {
			return nil, fmt.Errorf("no template %q for %s", template, typeName)
		}
		maps.Copy(out, values)
	}
	maps.Copy(out, overrides)
	return out, nil
}
