// Package queryir provides an abstract query representation over stored
// records.
//
// A query names a record type and filters its stored bodies by field
// value. Joins follow reference fields from one record type to another:
//
//	[--where flags] → [Query IR] → [SQL backend (querysql)]
//
// Queries and predicates are sealed interfaces using the marker method
// pattern, so backends can switch exhaustively:
//
//	switch q := query.(type) {
//	case Select:
//	    // Handle select
//	case Join:
//	    // Handle join
//	}
//
// Literal values are ir.IRValue in their canonical encoding: timestamps
// are RFC 3339 text, enumeration members are their values, nested
// records are their identifiers. Build produces values in that form by
// coercing raw input against the field signature.
//
// Lists, tuples and mappings cannot be compared; queries filter scalar
// fields only.
package queryir
