package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// The version suffix leaves room for a future algorithm change.
const (
	DomainRecord = "joe/record/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash hashes the canonical form of v under the given domain.
func ContentHash(domain string, v IRValue) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ContentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// RecordHash computes the structural identity of an encoded record.
// The type name participates so equal encodings of different types never collide.
func RecordHash(typeName string, encoded IRObject) (string, error) {
	canonical, err := MarshalCanonical(encoded)
	if err != nil {
		return "", fmt.Errorf("RecordHash: failed to marshal %s: %w", typeName, err)
	}
	return hashWithDomain(DomainRecord+"/"+typeName, canonical), nil
}

// MustRecordHash is like RecordHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordHash(typeName string, encoded IRObject) string {
	h, err := RecordHash(typeName, encoded)
	if err != nil {
		panic(err)
	}
	return h
}
