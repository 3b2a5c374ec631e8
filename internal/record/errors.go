package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes construction errors. Every code is fatal to the
// construction call that raised it.
type ErrorCode string

const (
	// ErrCodeTypeMismatch indicates a value fits none of the accepted types.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeInvalidEnumValue indicates text that names no enumeration member.
	ErrCodeInvalidEnumValue ErrorCode = "INVALID_ENUM_VALUE"

	// ErrCodeArityMismatch indicates a fixed tuple received the wrong length.
	ErrCodeArityMismatch ErrorCode = "ARITY_MISMATCH"

	// ErrCodeParseFailure indicates malformed timestamp or JSON text.
	ErrCodeParseFailure ErrorCode = "PARSE_FAILURE"

	// ErrCodeNoMatchingRecordType indicates a mapping where no record type is accepted.
	ErrCodeNoMatchingRecordType ErrorCode = "NO_MATCHING_RECORD_TYPE"

	// ErrCodeValidationFailed indicates a failed invariant check.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
)

// Error is a construction error.
type Error struct {
	Code ErrorCode

	// Path is the dotted location of the offending value,
	// e.g. "groundstations[2].latitude".
	Path string

	// Value is the raw offending input.
	Value any

	// Type names the record type being constructed.
	Type string

	// Expected describes the accepted signature.
	Expected string

	// Message is a human-readable reason.
	Message string

	// Enum names the enumeration for ErrCodeInvalidEnumValue.
	Enum string

	// ExpectedArity and ActualArity are set for ErrCodeArityMismatch.
	ExpectedArity int
	ActualArity   int

	// Check names the failed invariant for ErrCodeValidationFailed.
	Check string

	// Attempts lists every alternative tried for a union, with its failure.
	Attempts []Attempt

	Err error
}

// Attempt is one alternative tried while resolving a union.
type Attempt struct {
	Signature Signature
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Type != "" {
		b.WriteString(": ")
		b.WriteString(e.Type)
	}
	if e.Path != "" {
		b.WriteString(" field ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Code != ErrCodeValidationFailed && e.Value != nil {
		fmt.Fprintf(&b, " (got %#v)", e.Value)
	}
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n\ttried %s: %v", a.Signature, a.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is a construction error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// CodeOf returns the code of a construction error, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func mismatch(path string, raw any, expected string, format string, args ...any) *Error {
	return &Error{
		Code:     ErrCodeTypeMismatch,
		Path:     path,
		Value:    raw,
		Expected: expected,
		Message:  fmt.Sprintf(format, args...),
	}
}
