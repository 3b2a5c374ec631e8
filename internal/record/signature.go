package record

import (
	"fmt"
	"strings"
)

// Kind identifies a primitive value kind.
type Kind int

const (
	KindBool Kind = iota + 1
	KindInt
	KindFloat
	KindText
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Signature is the declared type of a field. It is a closed set of variants:
// Primitive, *Enum, Optional, List, Tuple, Mapping, Ref and Union.
type Signature interface {
	signature()
	String() string
}

// Primitive is a scalar kind.
type Primitive struct {
	Kind Kind
}

func (Primitive) signature() {}

func (p Primitive) String() string { return p.Kind.String() }

// Convenience primitives.
var (
	Bool      = Primitive{Kind: KindBool}
	Int       = Primitive{Kind: KindInt}
	Float     = Primitive{Kind: KindFloat}
	Text      = Primitive{Kind: KindText}
	Timestamp = Primitive{Kind: KindTimestamp}
)

// Enum is an ordered set of label/value pairs.
type Enum struct {
	Name    string
	Members []Member
}

func (*Enum) signature() {}

func (e *Enum) String() string { return e.Name }

// NewEnum builds an Enum from alternating label, value strings.
func NewEnum(name string, labelValues ...string) *Enum {
	e := &Enum{Name: name}
	for i := 0; i+1 < len(labelValues); i += 2 {
		e.Members = append(e.Members, Member{Enum: name, Label: labelValues[i], Value: labelValues[i+1]})
	}
	return e
}

// Lookup finds the member whose value, or failing that label, equals s.
func (e *Enum) Lookup(s string) (Member, bool) {
	for _, m := range e.Members {
		if m.Value == s {
			return m, true
		}
	}
	for _, m := range e.Members {
		if m.Label == s {
			return m, true
		}
	}
	return Member{}, false
}

// Values returns the declared member values in order.
func (e *Enum) Values() []string {
	out := make([]string, len(e.Members))
	for i, m := range e.Members {
		out[i] = m.Value
	}
	return out
}

// Member is a resolved enumeration value.
type Member struct {
	Enum  string
	Label string
	Value string
}

func (m Member) String() string { return m.Enum + "." + m.Label }

// Optional marks its inner signature nullable.
type Optional struct {
	Inner Signature
}

func (Optional) signature() {}

func (o Optional) String() string { return o.Inner.String() + "?" }

// List is a homogeneous sequence. A nil Elem is a bare list whose
// elements pass through unexamined.
type List struct {
	Elem Signature
}

func (List) signature() {}

func (l List) String() string {
	if l.Elem == nil {
		return "list"
	}
	return "list[" + l.Elem.String() + "]"
}

// Tuple is a fixed positional sequence, or an unbounded sequence of
// a single element type. No Elems means a bare tuple.
type Tuple struct {
	Elems     []Signature
	Unbounded bool
}

func (Tuple) signature() {}

func (t Tuple) String() string {
	if len(t.Elems) == 0 {
		return "tuple"
	}
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	if t.Unbounded {
		parts = append(parts, "...")
	}
	return "tuple[" + strings.Join(parts, ", ") + "]"
}

// Mapping is a keyed collection. Nil Key and Value is a bare mapping.
type Mapping struct {
	Key   Signature
	Value Signature
}

func (Mapping) signature() {}

func (m Mapping) String() string {
	if m.Key == nil || m.Value == nil {
		return "map"
	}
	return "map[" + m.Key.String() + ", " + m.Value.String() + "]"
}

// Ref references another record type.
type Ref struct {
	Type *Type
}

func (Ref) signature() {}

func (r Ref) String() string {
	if r.Type == nil {
		return "<unresolved>"
	}
	return r.Type.Name
}

// Union accepts any of its alternatives.
type Union struct {
	Alts []Signature
}

func (Union) signature() {}

func (u Union) String() string {
	parts := make([]string, len(u.Alts))
	for i, a := range u.Alts {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}

func describeAll(sigs []Signature) string {
	parts := make([]string, len(sigs))
	for i, s := range sigs {
		parts[i] = s.String()
	}
	return strings.Join(parts, " | ")
}
