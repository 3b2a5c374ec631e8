// Package record turns loosely typed field mappings into validated,
// consolidated record instances and renders them back out.
//
// A Type declares ordered fields, each with a Signature. Construct coerces
// every field against its signature (Resolve decomposes the signature into
// a container shape and accepted alternatives), runs the type's checks and
// then consolidates the resulting record graph through a Universe, so that
// records with identical encoded content share one instance.
//
// Coercion is decided by the first matching rule:
//
//  1. null is accepted when the signature is nullable
//  2. a value already of an accepted primitive kind passes through
//  3. int input widens to float, or to bool, when that is the sole accepted kind
//  4. text parses as a timestamp when timestamp is the sole accepted kind
//  5. text resolves to a member when an enumeration is the sole accepted type
//  6. text where a record is accepted is kept as a foreign-key identifier
//  7. a mapping where exactly one record type is accepted builds that record
//  8. an existing instance, member or time of an accepted type is kept
//
// Anything else tries every alternative in turn, and the failures are
// aggregated into one TYPE_MISMATCH error. Lists, tuples and mappings
// coerce element-wise.
//
// Encode renders an instance as an ir.IRObject in which nested records
// appear by identifier only. Equal compares the canonical JSON of two
// encodings.
package record
