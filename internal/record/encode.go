package record

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/joe/internal/ir"
)

// Encode renders an instance as a JSON-compatible tree. Timestamps become
// RFC 3339 text, enumeration members their declared value and nested
// records their identifier only. Containers are rendered element-wise.
func Encode(in *Instance) (ir.IRObject, error) {
	fields := in.Type.AllFields()
	obj := make(ir.IRObject, len(fields))
	for _, f := range fields {
		v, err := EncodeValue(in.values[f.Name])
		if err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", in.Type.Name, f.Name, err)
		}
		obj[f.Name] = v
	}
	return obj, nil
}

// EncodeValue renders a single field value.
func EncodeValue(v any) (ir.IRValue, error) {
	switch x := v.(type) {
	case nil:
		return ir.IRNull{}, nil
	case time.Time:
		return ir.IRString(FormatTimestamp(x)), nil
	case Member:
		return ir.IRString(x.Value), nil
	case *Instance:
		if x == nil {
			return ir.IRNull{}, nil
		}
		return ir.IRString(x.ID), nil
	case []any:
		arr := make(ir.IRArray, len(x))
		for i, item := range x {
			ev, err := EncodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case map[any]any:
		obj := make(ir.IRObject, len(x))
		for k, item := range x {
			ev, err := EncodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%s]: %w", KeyText(k), err)
			}
			obj[KeyText(k)] = ev
		}
		return obj, nil
	case map[string]any:
		obj := make(ir.IRObject, len(x))
		for k, item := range x {
			ev, err := EncodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%s]: %w", k, err)
			}
			obj[k] = ev
		}
		return obj, nil
	}

	// Bare containers keep their raw input, which may hold any shape.
	switch cls, norm := classify(v); cls {
	case classList, classMap:
		return EncodeValue(norm)
	}
	return ir.FromAny(v)
}

// EncodeJSON renders an instance as JSON text with sorted keys.
func EncodeJSON(in *Instance) ([]byte, error) {
	obj, err := Encode(in)
	if err != nil {
		return nil, err
	}
	return ir.MarshalIRValue(obj)
}

// Equal reports whether a and b are instances of the same type whose
// encoded forms are identical. Nested records compare by identifier.
func Equal(a, b *Instance) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Type != b.Type {
		return false
	}
	ea, err := Encode(a)
	if err != nil {
		return false
	}
	eb, err := Encode(b)
	if err != nil {
		return false
	}
	ca, err := ir.MarshalCanonical(ea)
	if err != nil {
		return false
	}
	cb, err := ir.MarshalCanonical(eb)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

// KeyText renders a mapping key as the object key the encoder writes.
// Stored reference paths use the same text.
func KeyText(k any) string {
	switch x := k.(type) {
	case string:
		return x
	case Member:
		return x.Value
	case time.Time:
		return FormatTimestamp(x)
	case *Instance:
		return x.ID
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if s, err := ir.FormatFloat(x); err == nil {
			return s
		}
	}
	return fmt.Sprint(k)
}
