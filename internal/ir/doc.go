// Package ir provides the JSON-compatible value tree that records encode to.
//
// ir imports nothing internal; record, store and harness build on it.
//
// Key design constraints:
//   - Floats are finite and always render with a fraction or exponent
//   - Null is an ordinary value (nullable fields encode to IRNull)
//   - Object keys serialize in RFC 8785 (UTF-16) order
//   - Content hashes use canonical JSON with domain separation
package ir
