package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/joe/internal/ir"
)

// marshalBody converts an encoded record to canonical JSON TEXT for storage.
func marshalBody(body ir.IRObject) (string, error) {
	data, err := ir.MarshalCanonical(body)
	if err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}
	return string(data), nil
}

// unmarshalBody parses canonical JSON TEXT to IRObject.
// Uses ir.IRObject.UnmarshalJSON so integer and float literals stay apart.
func unmarshalBody(data string) (ir.IRObject, error) {
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal body: %w", err)
	}
	return obj, nil
}
