package record

import (
	"fmt"
	"time"
)

// Instance is a constructed record. Every field value satisfies its
// signature and every check of its type passed.
//
// Field values are nil, bool, int64, float64, string (text or a foreign
// key), time.Time, Member, *Instance, []any for lists and tuples, and
// map[any]any for typed mappings. Bare containers hold their raw input.
type Instance struct {
	Type    *Type
	ID      string
	Created time.Time
	Updated time.Time

	values map[string]any
}

// Get returns the value of a field and whether the field exists.
func (in *Instance) Get(name string) (any, bool) {
	v, ok := in.values[name]
	return v, ok
}

// Fields returns a copy of every field value keyed by name.
func (in *Instance) Fields() map[string]any {
	out := make(map[string]any, len(in.values))
	for k, v := range in.values {
		out[k] = v
	}
	return out
}

// IsNull reports whether the field is absent or null.
func (in *Instance) IsNull(name string) bool {
	v, ok := in.values[name]
	return !ok || v == nil
}

// Float returns a numeric field as float64. Integers are widened.
// ok is false for null or non-numeric values.
func (in *Instance) Float(name string) (float64, bool) {
	switch v := in.values[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Int returns an integer field.
func (in *Instance) Int(name string) (int64, bool) {
	v, ok := in.values[name].(int64)
	return v, ok
}

// Text returns a text field.
func (in *Instance) Text(name string) (string, bool) {
	v, ok := in.values[name].(string)
	return v, ok
}

// Bool returns a boolean field.
func (in *Instance) Bool(name string) (bool, bool) {
	v, ok := in.values[name].(bool)
	return v, ok
}

// Time returns a timestamp field.
func (in *Instance) Time(name string) (time.Time, bool) {
	v, ok := in.values[name].(time.Time)
	return v, ok
}

// Member returns an enumeration field.
func (in *Instance) Member(name string) (Member, bool) {
	v, ok := in.values[name].(Member)
	return v, ok
}

// Child returns a nested record. It is false when the field holds a
// foreign-key identifier or null instead.
func (in *Instance) Child(name string) (*Instance, bool) {
	v, ok := in.values[name].(*Instance)
	return v, ok
}

// Ref returns the identifier a record-typed field points at, whether the
// field holds the nested record or a foreign-key identifier.
func (in *Instance) Ref(name string) (string, bool) {
	switch v := in.values[name].(type) {
	case *Instance:
		return v.ID, true
	case string:
		return v, true
	}
	return "", false
}

func (in *Instance) String() string {
	return fmt.Sprintf("%s(%s)", in.Type.Name, in.ID)
}
