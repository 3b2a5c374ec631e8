package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/joe/internal/ir"
	"github.com/roach88/joe/internal/queryir"
	"github.com/roach88/joe/internal/querysql"
	"github.com/roach88/joe/internal/record"
)

// ErrNotFound is returned when no record is stored under (type, id).
var ErrNotFound = errors.New("record not found")

// Record is one stored row.
type Record struct {
	Type string
	ID   string
	Body ir.IRObject
	Hash string
	Seq  int64
}

// Ref is a reference edge between two stored records. Path is the field
// path inside the referring record, e.g. "groundstations[0]".
type Ref struct {
	Type string
	ID   string
	Path string
}

// Get returns the stored record for (typeName, id).
func (s *Store) Get(ctx context.Context, typeName, id string) (Record, error) {
	var rec Record
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT type, id, body, content_hash, seq
		FROM records
		WHERE type = ? AND id = ?
	`, typeName, id).Scan(&rec.Type, &rec.ID, &body, &rec.Hash, &rec.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get %s %s: %w", typeName, id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s %s: %w", typeName, id, err)
	}

	rec.Body, err = unmarshalBody(body)
	if err != nil {
		return Record{}, fmt.Errorf("get %s %s: %w", typeName, id, err)
	}
	return rec, nil
}

// Load reconstructs a stored record as an instance of t. Nested records
// come back as foreign-key identifiers.
func (s *Store) Load(ctx context.Context, t *record.Type, id string, opts ...record.Option) (*record.Instance, error) {
	rec, err := s.Get(ctx, t.Name, id)
	if err != nil {
		return nil, err
	}
	in, err := record.Construct(t, ir.ToAny(rec.Body), opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", t.Name, id, err)
	}
	return in, nil
}

// List returns the identifiers stored for typeName in write order.
// Returns an empty slice (not nil) if none exist.
func (s *Store) List(ctx context.Context, typeName string) ([]string, error) {
	// Deterministic ordering - ORDER BY seq ASC, id COLLATE BINARY ASC
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM records
		WHERE type = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, typeName)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", typeName, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list %s: scan: %w", typeName, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: iterate: %w", typeName, err)
	}
	return ids, nil
}

// Find returns the identifiers of the records matching q in write order.
// A positive limit caps the result. Returns an empty slice (not nil) if
// nothing matches.
//
// q is compiled as given; callers validate it with queryir.Validate.
func (s *Store) Find(ctx context.Context, q queryir.Query, limit int) ([]string, error) {
	compiler := querysql.NewSQLCompiler()
	compiler.Limit = limit
	query, params, err := compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", queryir.RecordType(q), err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("find: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find: iterate: %w", err)
	}
	return ids, nil
}

// References returns the records (typeName, id) pointed at when it was
// written, ordered by path.
func (s *Store) References(ctx context.Context, typeName, id string) ([]Ref, error) {
	return s.queryRefs(ctx, `
		SELECT ref_type, ref_id, path FROM record_refs
		WHERE type = ? AND id = ?
		ORDER BY path COLLATE BINARY ASC
	`, typeName, id)
}

// Referrers returns the records pointing at (typeName, id).
func (s *Store) Referrers(ctx context.Context, typeName, id string) ([]Ref, error) {
	return s.queryRefs(ctx, `
		SELECT type, id, path FROM record_refs
		WHERE ref_type = ? AND ref_id = ?
		ORDER BY type COLLATE BINARY ASC, id COLLATE BINARY ASC, path COLLATE BINARY ASC
	`, typeName, id)
}

func (s *Store) queryRefs(ctx context.Context, query string, typeName, id string) ([]Ref, error) {
	rows, err := s.db.QueryContext(ctx, query, typeName, id)
	if err != nil {
		return nil, fmt.Errorf("query refs %s %s: %w", typeName, id, err)
	}
	defer rows.Close()

	refs := []Ref{}
	for rows.Next() {
		var r Ref
		if err := rows.Scan(&r.Type, &r.ID, &r.Path); err != nil {
			return nil, fmt.Errorf("scan ref: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refs: %w", err)
	}
	return refs, nil
}
