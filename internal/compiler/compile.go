package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/joe/internal/record"
)

// Compile turns a CUE declaration set into a Registry.
//
// The value is expected to have up to three top-level structs:
//
//	enums: State: [{label: "RUNNING", value: "Running"}, ...]
//	types: Orbit: {doc: "...", fields: [{name: "eccentricity", type: "float?"}], checks: [...], example: {...}}
//	templates: Orbit: LEO: {...}
//
// Types are compiled in two passes so fields may reference any declared
// type, including types declared later or the type itself. funcs supplies
// the checks referenced by {func: "<name>"} declarations.
func Compile(v cue.Value, funcs map[string]record.Check) (*Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	reg := newRegistry()

	if err := compileEnums(v, reg); err != nil {
		return nil, err
	}

	typesVal := v.LookupPath(cue.ParsePath("types"))
	if typesVal.Exists() {
		// Pass 1: register a shell for every type.
		iter, err := typesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name := iter.Label()
			if _, dup := reg.enums[name]; dup {
				return nil, &CompileError{
					Field:   "types." + name,
					Message: "name is already declared as an enumeration",
					Pos:     iter.Value().Pos(),
				}
			}
			reg.addType(&record.Type{Name: name})
		}

		// Pass 2: fields, checks and examples.
		iter, err = typesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			t := reg.types[iter.Label()]
			if err := compileType(iter.Value(), t, reg, funcs); err != nil {
				return nil, err
			}
		}
	}

	if err := compileTemplates(v, reg); err != nil {
		return nil, err
	}

	return reg, nil
}

// CompileString compiles CUE source text.
func CompileString(src string, funcs map[string]record.Check) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	return Compile(v, funcs)
}

// CompileBytes compiles CUE source bytes. filename is used in positions.
func CompileBytes(filename string, src []byte, funcs map[string]record.Check) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return Compile(v, funcs)
}

func compileEnums(v cue.Value, reg *Registry) error {
	enumsVal := v.LookupPath(cue.ParsePath("enums"))
	if !enumsVal.Exists() {
		return nil
	}
	iter, err := enumsVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		field := "enums." + name
		list, err := iter.Value().List()
		if err != nil {
			return formatCUEError(err)
		}

		e := &record.Enum{Name: name}
		seen := make(map[string]bool)
		for list.Next() {
			item := list.Value()
			var label, value string
			if s, err := item.String(); err == nil {
				// A bare string is both label and value.
				label, value = s, s
			} else {
				if label, err = requiredString(item, "label", field); err != nil {
					return err
				}
				if value, err = requiredString(item, "value", field); err != nil {
					return err
				}
			}
			if seen[value] {
				return &CompileError{
					Field:   field,
					Message: fmt.Sprintf("duplicate member value %q", value),
					Pos:     item.Pos(),
				}
			}
			seen[value] = true
			e.Members = append(e.Members, record.Member{Enum: name, Label: label, Value: value})
		}
		if len(e.Members) == 0 {
			return &CompileError{
				Field:   field,
				Message: "enumeration needs at least one member",
				Pos:     iter.Value().Pos(),
			}
		}
		reg.addEnum(e)
	}
	return nil
}

func compileType(v cue.Value, t *record.Type, reg *Registry, funcs map[string]record.Check) error {
	prefix := "types." + t.Name

	if docVal := v.LookupPath(cue.ParsePath("doc")); docVal.Exists() {
		doc, err := docVal.String()
		if err != nil {
			return formatCUEError(err)
		}
		t.Doc = doc
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if fieldsVal.Exists() {
		list, err := fieldsVal.List()
		if err != nil {
			return formatCUEError(err)
		}
		names := make(map[string]bool)
		for _, base := range record.BaseFields() {
			names[base.Name] = true
		}
		for i := 0; list.Next(); i++ {
			f, err := compileField(list.Value(), fmt.Sprintf("%s.fields[%d]", prefix, i), reg)
			if err != nil {
				return err
			}
			if names[f.Name] {
				return &CompileError{
					Field:   fmt.Sprintf("%s.fields[%d]", prefix, i),
					Message: fmt.Sprintf("duplicate field %q", f.Name),
					Pos:     list.Value().Pos(),
				}
			}
			names[f.Name] = true
			t.Fields = append(t.Fields, f)
		}
	}

	checksVal := v.LookupPath(cue.ParsePath("checks"))
	if checksVal.Exists() {
		list, err := checksVal.List()
		if err != nil {
			return formatCUEError(err)
		}
		for i := 0; list.Next(); i++ {
			checks, err := compileCheck(list.Value(), fmt.Sprintf("%s.checks[%d]", prefix, i), t, funcs)
			if err != nil {
				return err
			}
			t.Checks = append(t.Checks, checks...)
		}
	}

	if exVal := v.LookupPath(cue.ParsePath("example")); exVal.Exists() {
		ex, err := decodeValue(exVal)
		if err != nil {
			return err
		}
		m, ok := ex.(map[string]any)
		if !ok {
			return &CompileError{
				Field:   prefix + ".example",
				Message: "example must be a struct",
				Pos:     exVal.Pos(),
			}
		}
		t.Example = m
	}

	return nil
}

func compileField(v cue.Value, field string, reg *Registry) (record.Field, error) {
	var f record.Field

	name, err := requiredString(v, "name", field)
	if err != nil {
		return f, err
	}
	f.Name = name

	typeVal := v.LookupPath(cue.ParsePath("type"))
	expr, err := requiredString(v, "type", field)
	if err != nil {
		return f, err
	}
	sig, err := ParseType(expr, reg.resolve)
	if err != nil {
		return f, &CompileError{
			Field:   field + ".type",
			Message: err.Error(),
			Pos:     typeVal.Pos(),
		}
	}
	f.Sig = sig

	if docVal := v.LookupPath(cue.ParsePath("doc")); docVal.Exists() {
		if f.Doc, err = docVal.String(); err != nil {
			return f, formatCUEError(err)
		}
	}

	if defVal := v.LookupPath(cue.ParsePath("default")); defVal.Exists() {
		def, err := decodeValue(defVal)
		if err != nil {
			return f, err
		}
		f.Default = def
		f.HasDefault = true
	}

	return f, nil
}

// decodeValue converts a concrete CUE value into plain Go values,
// keeping integer and float literals apart via json.Number.
func decodeValue(v cue.Value) (any, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, &CompileError{Field: "cue", Message: err.Error(), Pos: v.Pos()}
	}
	return out, nil
}

func requiredString(v cue.Value, key, field string) (string, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return "", &CompileError{
			Field:   field + "." + key,
			Message: key + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func compileTemplates(v cue.Value, reg *Registry) error {
	tmplVal := v.LookupPath(cue.ParsePath("templates"))
	if !tmplVal.Exists() {
		return nil
	}
	iter, err := tmplVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		typeName := iter.Label()
		t, ok := reg.types[typeName]
		if !ok {
			return &CompileError{
				Field:   "templates." + typeName,
				Message: fmt.Sprintf("unknown type %q", typeName),
				Pos:     iter.Value().Pos(),
			}
		}
		named, err := iter.Value().Fields()
		if err != nil {
			return formatCUEError(err)
		}
		for named.Next() {
			name := named.Label()
			field := "templates." + typeName + "." + name
			raw, err := decodeValue(named.Value())
			if err != nil {
				return err
			}
			m, ok := raw.(map[string]any)
			if !ok {
				return &CompileError{Field: field, Message: "template must be a struct", Pos: named.Value().Pos()}
			}
			for k := range m {
				if _, known := t.Field(k); !known {
					return &CompileError{
						Field:   field,
						Message: fmt.Sprintf("unknown field %q for %s", k, typeName),
						Pos:     named.Value().Pos(),
					}
				}
			}
			reg.addTemplate(typeName, name, m)
		}
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
