package queryir

import "github.com/roach88/joe/internal/ir"

// Query represents an abstract record query.
//
// This is a sealed interface - only types in this package implement it.
//
// Query types:
//   - Select: stored records of one type, optionally filtered
//   - Join: records whose reference field points at a matched record
//
// Every query produces a set of stored records of a single type.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition on a record body.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal_value
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select matches the stored records of one type.
//
// Example:
//
//	Select{
//	  Type:   "Orbit",
//	  Filter: Equals{Field: "inclination", Value: ir.IRFloat(51.6)},
//	}
//
// Translates to SQL:
//
//	SELECT ... FROM records r
//	WHERE r.type = 'Orbit' AND json_extract(r.body, '$."inclination"') = 51.6
type Select struct {
	Type   string    // Record type name
	Filter Predicate // nil = every record of Type
}

func (Select) queryNode() {}

// Join matches the Left records that reference, through field Via, a
// record matched by Right.
//
// Example (missions created by the company named Acme):
//
//	Join{
//	  Left:  Select{Type: "Mission"},
//	  Via:   "created_by",
//	  Right: Select{Type: "Company", Filter: Equals{Field: "name", Value: ir.IRString("Acme")}},
//	}
//
// Via may name a single reference field or a list or mapping of
// references; any element matching counts. Right may itself be a Join.
type Join struct {
	Left  Query
	Via   string
	Right Query
}

func (Join) queryNode() {}

// Equals compares a top-level body field with a literal.
//
// ir.IRNull matches fields that are null or absent. Integers and floats
// compare by numeric value.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// And is a conjunction of predicates. Empty Predicates is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// RecordType returns the type of the records q produces.
func RecordType(q Query) string {
	switch query := q.(type) {
	case Select:
		return query.Type
	case *Select:
		return query.Type
	case Join:
		return RecordType(query.Left)
	case *Join:
		return RecordType(query.Left)
	}
	return ""
}
