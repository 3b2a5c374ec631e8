package cli

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/joe/internal/ir"
	"github.com/roach88/joe/internal/record"
)

// construction collects what one CLI construction call needs.
type construction struct {
	warnings []record.Warning
}

// options returns the record options for a command. With assignIDs, records
// without an id get a random UUID and absent timestamps get the current
// time in UTC.
func (c *construction) options(opts *RootOptions, assignIDs bool) []record.Option {
	out := []record.Option{
		record.WithLogger(newLogger(opts)),
		record.WithWarnings(func(w record.Warning) { c.warnings = append(c.warnings, w) }),
	}
	if assignIDs {
		out = append(out,
			record.WithIDs(uuid.NewString),
			record.WithClock(func() time.Time { return time.Now().UTC().Truncate(time.Second) }),
		)
	}
	return out
}

func (c *construction) warningText() []string {
	out := make([]string, len(c.warnings))
	for i, w := range c.warnings {
		out[i] = w.String()
	}
	return out
}

// encodedRecord is a constructed record as plain JSON values with its
// content hash.
type encodedRecord struct {
	Body map[string]any
	Hash string
	JSON []byte
}

func encodeRecord(in *record.Instance) (encodedRecord, error) {
	body, err := record.Encode(in)
	if err != nil {
		return encodedRecord{}, err
	}
	hash, err := ir.RecordHash(in.Type.Name, body)
	if err != nil {
		return encodedRecord{}, err
	}
	text, err := ir.MarshalCanonical(body)
	if err != nil {
		return encodedRecord{}, err
	}
	plain, _ := ir.ToAny(body).(map[string]any)
	return encodedRecord{Body: plain, Hash: hash, JSON: text}, nil
}
