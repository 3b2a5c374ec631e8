package record

// Container is the outer shape of a resolved signature.
type Container int

const (
	ContainerNone Container = iota
	ContainerList
	ContainerTuple
	ContainerMapping
)

func (c Container) String() string {
	switch c {
	case ContainerList:
		return "list"
	case ContainerTuple:
		return "tuple"
	case ContainerMapping:
		return "mapping"
	}
	return "none"
}

// Shape is a signature decomposed into its container and accepted types.
//
// For ContainerNone, Accepted holds the flattened alternatives.
// For ContainerList it holds the element type (empty for a bare list).
// For ContainerTuple it holds the positional types.
// For ContainerMapping it holds [key, value] (empty for a bare mapping).
type Shape struct {
	Container Container
	Nullable  bool
	Accepted  []Signature
	Unbounded bool
}

// Bare reports whether a container declares no element types.
func (s Shape) Bare() bool {
	return s.Container != ContainerNone && len(s.Accepted) == 0
}

// Resolve decomposes sig. Optional strips to its inner type and marks the
// shape nullable; unions flatten nested unions and optionals. A union whose
// only non-null alternative is a container resolves to that container.
func Resolve(sig Signature) Shape {
	switch s := sig.(type) {
	case Optional:
		shape := Resolve(s.Inner)
		shape.Nullable = true
		return shape
	case Union:
		alts, nullable := flatten(s.Alts, nil, false)
		if len(alts) == 1 {
			shape := Resolve(alts[0])
			shape.Nullable = shape.Nullable || nullable
			return shape
		}
		return Shape{Container: ContainerNone, Nullable: nullable, Accepted: alts}
	case List:
		if s.Elem == nil {
			return Shape{Container: ContainerList}
		}
		return Shape{Container: ContainerList, Accepted: []Signature{s.Elem}}
	case Tuple:
		return Shape{Container: ContainerTuple, Accepted: s.Elems, Unbounded: s.Unbounded || len(s.Elems) == 0}
	case Mapping:
		if s.Key == nil || s.Value == nil {
			return Shape{Container: ContainerMapping}
		}
		return Shape{Container: ContainerMapping, Accepted: []Signature{s.Key, s.Value}}
	}
	return Shape{Container: ContainerNone, Accepted: []Signature{sig}}
}

func flatten(in []Signature, out []Signature, nullable bool) ([]Signature, bool) {
	for _, alt := range in {
		switch a := alt.(type) {
		case Optional:
			nullable = true
			out, nullable = flatten([]Signature{a.Inner}, out, nullable)
		case Union:
			out, nullable = flatten(a.Alts, out, nullable)
		default:
			out = append(out, alt)
		}
	}
	return out, nullable
}

// Nullable reports whether sig accepts null.
func Nullable(sig Signature) bool {
	return Resolve(sig).Nullable
}

// soleEnum returns the enumeration when it is the only accepted type.
func (s Shape) soleEnum() (*Enum, bool) {
	if s.Container != ContainerNone || len(s.Accepted) != 1 {
		return nil, false
	}
	e, ok := s.Accepted[0].(*Enum)
	return e, ok
}
