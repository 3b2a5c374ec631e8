package record

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"time"
)

// Option configures a construction call.
type Option func(*options)

type options struct {
	universe *Universe
	logger   *slog.Logger
	warn     func(Warning)
	ids      func() string
	now      func() time.Time
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithUniverse consolidates into u instead of a fresh scope. Use it to
// share canonical instances across several top-level constructions.
func WithUniverse(u *Universe) Option {
	return func(o *options) { o.universe = u }
}

// WithLogger sets the logger coercion warnings are written to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithWarnings registers a sink for coercion warnings.
func WithWarnings(fn func(Warning)) Option {
	return func(o *options) { o.warn = fn }
}

// WithIDs assigns an identifier to records whose id is absent.
func WithIDs(next func() string) Option {
	return func(o *options) { o.ids = next }
}

// WithClock fills absent creation and update timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Construct builds a validated instance of t from a raw field mapping and
// consolidates its record graph. raw may be a map[string]any, any other
// mapping, or an ir.IRObject.
func Construct(t *Type, raw any, opts ...Option) (*Instance, error) {
	o := newOptions(opts)
	c := &coercer{opts: o}

	cls, v := classify(raw)
	if cls != classMap {
		e := mismatch("", raw, t.Name, "expected a mapping of fields, got %s", cls)
		e.Type = t.Name
		return nil, e
	}
	fields, err := stringKeyed("", v)
	if err != nil {
		attributeType(err, t.Name)
		return nil, err
	}

	in, err := c.build("", t, fields)
	if err != nil {
		return nil, err
	}

	u := o.universe
	if u == nil {
		u = NewUniverse()
	}
	return u.Consolidate(in)
}

// Decode parses JSON text and constructs an instance of t from it.
func Decode(t *Type, data []byte, opts ...Option) (*Instance, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &Error{
			Code:    ErrCodeParseFailure,
			Type:    t.Name,
			Message: "malformed JSON: " + err.Error(),
			Err:     err,
		}
	}
	if dec.More() {
		return nil, &Error{
			Code:    ErrCodeParseFailure,
			Type:    t.Name,
			Message: "malformed JSON: trailing data after object",
		}
	}
	if raw == nil {
		e := mismatch("", nil, t.Name, "expected a mapping of fields, got null")
		e.Type = t.Name
		return nil, e
	}
	return Construct(t, raw, opts...)
}

// Coerce converts a single raw value to sig. Records found along the way
// are built and validated but not consolidated.
func Coerce(path string, raw any, sig Signature, opts ...Option) (any, error) {
	c := &coercer{opts: newOptions(opts)}
	return c.coerce(path, raw, sig)
}
