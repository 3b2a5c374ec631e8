package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/joe/internal/record"
)

// Validation error codes (E100-E199)
const (
	// Type declaration errors (E101-E109)
	ErrTypeDocEmpty      = "E101" // doc is required
	ErrTypeNoExample     = "E102" // example is required
	ErrExampleInvalid    = "E103" // example does not construct
	ErrTemplateInvalid   = "E104" // template does not construct
	ErrDefaultInvalid    = "E105" // default does not coerce to the field type
	ErrEnumLabelConflict = "E106" // a label of one member is the value of another
	ErrEnumLookalike     = "E107" // two members differ only in Unicode normalization
)

// ValidationError represents a declaration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled registry beyond what compilation enforces:
// every type is documented, every example and every template constructs
// and passes its checks, and every default coerces.
// Returns all errors found (does not fail-fast).
func Validate(reg *Registry) []ValidationError {
	var errs []ValidationError

	for _, e := range reg.Enums() {
		errs = append(errs, validateEnum(e)...)
	}
	for _, t := range reg.Types() {
		errs = append(errs, validateType(reg, t)...)
	}
	return errs
}

func validateEnum(e *record.Enum) []ValidationError {
	var errs []ValidationError
	values := make(map[string]string, len(e.Members))
	for _, m := range e.Members {
		values[m.Value] = m.Label
	}
	for _, m := range e.Members {
		if owner, ok := values[m.Label]; ok && owner != m.Label {
			errs = append(errs, ValidationError{
				Field:   "enums." + e.Name,
				Message: fmt.Sprintf("label %q is also the value of %s", m.Label, owner),
				Code:    ErrEnumLabelConflict,
			})
		}
	}

	// Encoded text is compared byte for byte, so "é" and "e\u0301" are
	// different members that render identically.
	seen := make(map[string]string, len(e.Members))
	for _, m := range e.Members {
		key := norm.NFC.String(m.Value)
		if prev, ok := seen[key]; ok && prev != m.Value {
			errs = append(errs, ValidationError{
				Field:   "enums." + e.Name,
				Message: fmt.Sprintf("values %q and %q differ only in Unicode normalization", prev, m.Value),
				Code:    ErrEnumLookalike,
			})
			continue
		}
		seen[key] = m.Value
	}
	return errs
}

func validateType(reg *Registry, t *record.Type) []ValidationError {
	var errs []ValidationError
	prefix := "types." + t.Name

	if strings.TrimSpace(t.Doc) == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".doc",
			Message: "doc is required and must be non-empty",
			Code:    ErrTypeDocEmpty,
		})
	}

	for i, f := range t.Fields {
		if !f.HasDefault {
			continue
		}
		if _, err := record.Coerce(f.Name, f.Default, f.Sig, quietOptions()...); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.fields[%d].default", prefix, i),
				Message: err.Error(),
				Code:    ErrDefaultInvalid,
			})
		}
	}

	if t.Example == nil {
		errs = append(errs, ValidationError{
			Field:   prefix + ".example",
			Message: "example is required",
			Code:    ErrTypeNoExample,
		})
		return errs
	}
	if _, err := record.Construct(t, t.Example, quietOptions()...); err != nil {
		errs = append(errs, ValidationError{
			Field:   prefix + ".example",
			Message: err.Error(),
			Code:    ErrExampleInvalid,
		})
	}

	for _, name := range reg.Templates(t.Name) {
		raw, err := reg.Instantiate(t.Name, name, nil)
		if err == nil {
			_, err = record.Construct(t, raw, quietOptions()...)
		}
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("templates.%s.%s", t.Name, name),
				Message: err.Error(),
				Code:    ErrTemplateInvalid,
			})
		}
	}
	return errs
}

// quietOptions fills absent base fields with fixed values and discards
// coercion warnings.
func quietOptions() []record.Option {
	return []record.Option{
		record.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		record.WithIDs(func() string { return "validate" }),
		record.WithClock(func() time.Time { return time.Unix(0, 0).UTC() }),
	}
}
