package record

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/joe/internal/ir"
)

// Warning is a non-fatal diagnostic emitted when a numeric value is cast
// to the single accepted kind.
type Warning struct {
	Path  string
	Value any
	From  Kind
	To    Kind
}

func (w Warning) String() string {
	return fmt.Sprintf("casting %s from %s to %s", w.Path, w.From, w.To)
}

// valueClass is the runtime shape of an input value.
type valueClass int

const (
	classOther valueClass = iota
	classNull
	classBool
	classInt
	classWideInt
	classFloat
	classText
	classTime
	classList
	classMap
	classInstance
	classMember
)

func (c valueClass) String() string {
	switch c {
	case classNull:
		return "null"
	case classBool:
		return "bool"
	case classInt:
		return "int"
	case classWideInt:
		return "int outside 64 bits"
	case classFloat:
		return "float"
	case classText:
		return "text"
	case classTime:
		return "timestamp"
	case classList:
		return "list"
	case classMap:
		return "mapping"
	case classInstance:
		return "record"
	case classMember:
		return "enum member"
	}
	return "unsupported value"
}

// classify reports the shape of v and a normalized copy: integers become
// int64, floats float64, slices []any and maps map[string]any or map[any]any.
// Integers that do not fit in int64 are classWideInt carrying a float64.
func classify(v any) (valueClass, any) {
	switch x := v.(type) {
	case nil:
		return classNull, nil
	case bool:
		return classBool, x
	case int:
		return classInt, int64(x)
	case int8:
		return classInt, int64(x)
	case int16:
		return classInt, int64(x)
	case int32:
		return classInt, int64(x)
	case int64:
		return classInt, x
	case uint8:
		return classInt, int64(x)
	case uint16:
		return classInt, int64(x)
	case uint32:
		return classInt, int64(x)
	case uint:
		return classifyUint(uint64(x))
	case uint64:
		return classifyUint(x)
	case float32:
		return classFloat, float64(x)
	case float64:
		return classFloat, x
	case json.Number:
		if ir.IsFloatLiteral(x) {
			f, err := x.Float64()
			if err != nil {
				return classOther, v
			}
			return classFloat, f
		}
		if i, err := x.Int64(); err == nil {
			return classInt, i
		}
		f, err := x.Float64()
		if err != nil && !math.IsInf(f, 0) {
			return classOther, v
		}
		return classWideInt, f
	case string:
		return classText, x
	case time.Time:
		return classTime, x
	case *Instance:
		if x == nil {
			return classNull, nil
		}
		return classInstance, x
	case Member:
		return classMember, x
	case []any:
		return classList, x
	case map[string]any:
		return classMap, x
	case map[any]any:
		return classMap, x
	case ir.IRValue:
		return classify(ir.ToAny(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return classList, out
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = iter.Value().Interface()
			}
			return classMap, out
		}
		out := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().Interface()] = iter.Value().Interface()
		}
		return classMap, out
	}
	return classOther, v
}

func classifyUint(x uint64) (valueClass, any) {
	if x > math.MaxInt64 {
		return classWideInt, float64(x)
	}
	return classInt, int64(x)
}

func describeValue(v any) string {
	cls, _ := classify(v)
	return cls.String()
}

// coercer converts loosely typed input into typed field values for one
// top-level construction call.
type coercer struct {
	opts *options
}

func (c *coercer) warn(path string, raw any, from, to Kind) {
	w := Warning{Path: path, Value: raw, From: from, To: to}
	if c.opts.warn != nil {
		c.opts.warn(w)
	}
	c.opts.logger.Warn("casting field value",
		"path", path,
		"from", from.String(),
		"to", to.String(),
		"value", raw,
	)
}

// coerce converts raw to a value of sig.
func (c *coercer) coerce(path string, raw any, sig Signature) (any, error) {
	s := Resolve(sig)
	if s.Container != ContainerNone {
		return c.container(path, raw, s)
	}
	v, handled, err := c.direct(path, raw, s)
	if handled {
		return v, err
	}
	return c.fallback(path, raw, s.Accepted)
}

// direct applies the scalar, enumeration, record and idempotence rules in
// order. handled is false when none of them decided the value.
func (c *coercer) direct(path string, raw any, s Shape) (any, bool, error) {
	accepted := s.Accepted
	cls, v := classify(raw)

	if cls == classNull {
		if s.Nullable {
			return nil, true, nil
		}
		return nil, true, mismatch(path, raw, describeAll(accepted), "null is not accepted, expected %s", describeAll(accepted))
	}

	var sole Signature
	if len(accepted) == 1 {
		sole = accepted[0]
	}

	switch cls {
	case classBool:
		if acceptsKind(accepted, KindBool) {
			return v, true, nil
		}

	case classInt:
		if acceptsKind(accepted, KindInt) {
			return v, true, nil
		}
		switch sole {
		case Float:
			c.warn(path, raw, KindInt, KindFloat)
			return float64(v.(int64)), true, nil
		case Bool:
			c.warn(path, raw, KindInt, KindBool)
			return v.(int64) != 0, true, nil
		}

	case classWideInt:
		// Only a float can hold it, at reduced precision.
		if sole == Float {
			f := v.(float64)
			if math.IsInf(f, 0) {
				return nil, true, mismatch(path, raw, Float.String(), "integer %v overflows float", raw)
			}
			c.warn(path, raw, KindInt, KindFloat)
			return f, true, nil
		}

	case classFloat:
		if acceptsKind(accepted, KindFloat) {
			return v, true, nil
		}
		if sole == Int {
			f := v.(float64)
			if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return nil, true, mismatch(path, raw, Int.String(), "%v does not fit in int", raw)
			}
			c.warn(path, raw, KindFloat, KindInt)
			return int64(f), true, nil
		}

	case classText:
		text := v.(string)
		if acceptsKind(accepted, KindText) {
			return text, true, nil
		}
		if sole == Timestamp {
			ts, err := ParseTimestamp(text)
			if err != nil {
				return nil, true, &Error{
					Code:     ErrCodeParseFailure,
					Path:     path,
					Value:    raw,
					Expected: Timestamp.String(),
					Message:  "malformed ISO-8601 timestamp",
					Err:      err,
				}
			}
			return ts, true, nil
		}
		if e, ok := sole.(*Enum); ok {
			m, found := e.Lookup(text)
			if !found {
				return nil, true, &Error{
					Code:     ErrCodeInvalidEnumValue,
					Path:     path,
					Value:    raw,
					Enum:     e.Name,
					Expected: e.Name,
					Message:  fmt.Sprintf("%q is not a member of %s (one of %s)", text, e.Name, strings.Join(e.Values(), ", ")),
				}
			}
			return m, true, nil
		}
		// Text where a record is accepted is a foreign-key identifier.
		// It is never dereferenced here.
		if len(refsOf(accepted)) > 0 {
			return text, true, nil
		}

	case classMap:
		refs := refsOf(accepted)
		if len(refs) == 1 {
			fields, err := stringKeyed(path, v)
			if err != nil {
				return nil, true, err
			}
			in, err := c.build(path, refs[0].Type, fields)
			if err != nil {
				return nil, true, err
			}
			return in, true, nil
		}
		if len(refs) == 0 && !acceptsContainer(accepted, ContainerMapping) {
			return nil, true, &Error{
				Code:     ErrCodeNoMatchingRecordType,
				Path:     path,
				Value:    raw,
				Expected: describeAll(accepted),
				Message:  fmt.Sprintf("mapping given but no record type is accepted, expected %s", describeAll(accepted)),
			}
		}

	case classInstance:
		in := v.(*Instance)
		for _, r := range refsOf(accepted) {
			if r.Type == in.Type {
				return in, true, nil
			}
		}

	case classMember:
		m := v.(Member)
		for _, alt := range accepted {
			if e, ok := alt.(*Enum); ok && e.Name == m.Enum {
				if _, found := e.Lookup(m.Value); found {
					return m, true, nil
				}
			}
		}

	case classTime:
		if acceptsKind(accepted, KindTimestamp) {
			return v, true, nil
		}
	}

	return nil, false, nil
}

// fallback tries every alternative in turn and aggregates the failures.
func (c *coercer) fallback(path string, raw any, accepted []Signature) (any, error) {
	if len(accepted) == 1 {
		return c.attempt(path, raw, accepted[0])
	}
	attempts := make([]Attempt, 0, len(accepted))
	for _, alt := range accepted {
		v, err := c.attempt(path, raw, alt)
		if err == nil {
			return v, nil
		}
		attempts = append(attempts, Attempt{Signature: alt, Err: err})
	}
	return nil, &Error{
		Code:     ErrCodeTypeMismatch,
		Path:     path,
		Value:    raw,
		Expected: describeAll(accepted),
		Message:  fmt.Sprintf("expected %s, got %s", describeAll(accepted), describeValue(raw)),
		Attempts: attempts,
	}
}

// attempt coerces raw against a single alternative.
func (c *coercer) attempt(path string, raw any, alt Signature) (any, error) {
	s := Resolve(alt)
	if s.Container != ContainerNone {
		return c.container(path, raw, s)
	}
	v, handled, err := c.direct(path, raw, s)
	if handled {
		return v, err
	}
	return nil, mismatch(path, raw, alt.String(), "expected %s, got %s", alt, describeValue(raw))
}

// container applies the list, tuple and mapping rules.
func (c *coercer) container(path string, raw any, s Shape) (any, error) {
	cls, v := classify(raw)
	if cls == classNull {
		if s.Nullable {
			return nil, nil
		}
		return nil, mismatch(path, raw, s.Container.String(), "null is not accepted, expected a %s", s.Container)
	}

	switch s.Container {
	case ContainerList:
		if cls != classList {
			return nil, mismatch(path, raw, s.Container.String(), "expected a list, got %s", cls)
		}
		items := v.([]any)
		if s.Bare() {
			return items, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			ev, err := c.coerce(indexPath(path, i), item, s.Accepted[0])
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil

	case ContainerTuple:
		if cls != classList {
			return nil, mismatch(path, raw, s.Container.String(), "expected a tuple, got %s", cls)
		}
		items := v.([]any)
		if s.Bare() {
			return items, nil
		}
		out := make([]any, len(items))
		if len(s.Accepted) == 1 {
			for i, item := range items {
				ev, err := c.coerce(indexPath(path, i), item, s.Accepted[0])
				if err != nil {
					return nil, err
				}
				out[i] = ev
			}
			return out, nil
		}
		if len(items) != len(s.Accepted) {
			return nil, &Error{
				Code:          ErrCodeArityMismatch,
				Path:          path,
				Value:         raw,
				Expected:      Tuple{Elems: s.Accepted}.String(),
				ExpectedArity: len(s.Accepted),
				ActualArity:   len(items),
				Message:       fmt.Sprintf("expected %d elements, got %d", len(s.Accepted), len(items)),
			}
		}
		for i, item := range items {
			ev, err := c.coerce(indexPath(path, i), item, s.Accepted[i])
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil

	case ContainerMapping:
		if cls != classMap {
			return nil, mismatch(path, raw, s.Container.String(), "expected a mapping, got %s", cls)
		}
		if s.Bare() {
			return v, nil
		}
		entries := mapEntries(v)
		out := make(map[any]any, len(entries))
		for _, e := range entries {
			p := keyPath(path, e.key)
			k, err := c.coerce(p, keyInput(e.key, s.Accepted[0]), s.Accepted[0])
			if err != nil {
				return nil, err
			}
			if k != nil && !reflect.TypeOf(k).Comparable() {
				return nil, mismatch(p, e.key, s.Accepted[0].String(), "mapping key is not hashable")
			}
			if _, dup := out[k]; dup {
				return nil, mismatch(p, e.key, s.Accepted[0].String(), "duplicate mapping key after coercion")
			}
			val, err := c.coerce(p, e.value, s.Accepted[1])
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	}

	return nil, mismatch(path, raw, "", "unsupported container %s", s.Container)
}

// build runs the full construction pipeline for one record: every field is
// coerced in declared order, then the type's checks run.
func (c *coercer) build(path string, t *Type, raw map[string]any) (*Instance, error) {
	fields := t.AllFields()
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Name] = true
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !known[k] {
			e := mismatch(joinPath(path, k), raw[k], "", "unknown field for %s", t.Name)
			e.Type = t.Name
			return nil, e
		}
	}

	var now *time.Time
	in := &Instance{Type: t, values: make(map[string]any, len(fields))}
	for _, f := range fields {
		p := joinPath(path, f.Name)
		rv, ok := raw[f.Name]
		if !ok {
			rv, ok = c.missing(f, &now)
			if !ok {
				e := mismatch(p, nil, f.Sig.String(), "missing field, expected %s", f.Sig)
				e.Type = t.Name
				return nil, e
			}
		}
		v, err := c.coerce(p, rv, f.Sig)
		if err != nil {
			attributeType(err, t.Name)
			return nil, err
		}
		in.values[f.Name] = v
	}

	in.ID, _ = in.values[FieldID].(string)
	in.Created, _ = in.values[FieldCreationDate].(time.Time)
	in.Updated, _ = in.values[FieldUpdateDate].(time.Time)

	if err := dispatch(path, in); err != nil {
		return nil, err
	}
	return in, nil
}

// missing supplies a value for an absent field.
func (c *coercer) missing(f Field, now **time.Time) (any, bool) {
	switch {
	case f.HasDefault:
		return f.Default, true
	case f.Name == FieldID && c.opts.ids != nil:
		return c.opts.ids(), true
	case (f.Name == FieldCreationDate || f.Name == FieldUpdateDate) && c.opts.now != nil:
		if *now == nil {
			ts := c.opts.now()
			*now = &ts
		}
		return **now, true
	case Nullable(f.Sig):
		return nil, true
	}
	return nil, false
}

// attributeType records the record type on errors that lack one.
// The innermost type wins.
func attributeType(err error, typeName string) {
	if re, ok := err.(*Error); ok && re.Type == "" {
		re.Type = typeName
	}
}

func acceptsKind(accepted []Signature, k Kind) bool {
	for _, a := range accepted {
		if p, ok := a.(Primitive); ok && p.Kind == k {
			return true
		}
	}
	return false
}

func acceptsContainer(accepted []Signature, c Container) bool {
	for _, a := range accepted {
		if Resolve(a).Container == c {
			return true
		}
	}
	return false
}

func refsOf(accepted []Signature) []Ref {
	var refs []Ref
	for _, a := range accepted {
		if r, ok := a.(Ref); ok && r.Type != nil {
			refs = append(refs, r)
		}
	}
	return refs
}

type mapEntry struct {
	key   any
	value any
}

// mapEntries returns the entries of a normalized mapping in a stable order.
func mapEntries(v any) []mapEntry {
	var entries []mapEntry
	switch m := v.(type) {
	case map[string]any:
		for k, val := range m {
			entries = append(entries, mapEntry{key: k, value: val})
		}
	case map[any]any:
		for k, val := range m {
			entries = append(entries, mapEntry{key: k, value: val})
		}
	}
	slices.SortFunc(entries, func(a, b mapEntry) int {
		return strings.Compare(KeyText(a.key), KeyText(b.key))
	})
	return entries
}

// keyInput reads back a key written by KeyText. JSON object keys are
// always text, so int, float and bool keys arrive as their decimal or
// literal form.
func keyInput(key any, sig Signature) any {
	text, ok := key.(string)
	if !ok {
		return key
	}
	ks := Resolve(sig)
	if ks.Container != ContainerNone || len(ks.Accepted) != 1 {
		return key
	}
	switch ks.Accepted[0] {
	case Int:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
	case Float:
		if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f
		}
	case Bool:
		switch text {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return key
}

// stringKeyed converts a normalized mapping into record field input.
func stringKeyed(path string, v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, mismatch(path, v, "", "record field names must be text, got %T", k)
			}
			out[s] = val
		}
		return out, nil
	}
	return nil, mismatch(path, v, "", "expected a mapping")
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func indexPath(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}

func keyPath(prefix string, key any) string {
	return fmt.Sprintf("%s[%s]", prefix, KeyText(key))
}
