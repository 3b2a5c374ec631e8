package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/joe/internal/ir"
	"github.com/roach88/joe/internal/record"
)

// ErrConflict is returned when a (type, id) already holds different content.
var ErrConflict = errors.New("record already stored with different content")

// Put writes root and every record reachable from it, children before
// parents, in a single transaction. It returns the number of rows newly
// written.
//
// Writing identical content again is a no-op. If any record's (type, id)
// already holds different content the whole write is rolled back and the
// error wraps ErrConflict.
//
// Callers normally pass a consolidated instance so that structurally equal
// records share one identifier; Put itself only deduplicates by pointer.
func (s *Store) Put(ctx context.Context, root *record.Instance) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("put: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	w := &writer{tx: tx, seen: make(map[*record.Instance]bool)}
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM records`).Scan(&w.seq); err != nil {
		return 0, fmt.Errorf("put: read seq: %w", err)
	}

	if err := w.put(ctx, root); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("put: commit: %w", err)
	}
	return w.written, nil
}

type writer struct {
	tx      *sql.Tx
	seq     int64
	written int
	seen    map[*record.Instance]bool
}

type edge struct {
	path string
	to   *record.Instance
}

func (w *writer) put(ctx context.Context, in *record.Instance) error {
	if w.seen[in] {
		return nil
	}
	w.seen[in] = true

	if in.ID == "" {
		return fmt.Errorf("put %s: record has no identifier", in.Type.Name)
	}

	// Post-order: children are written first so reference edges always
	// point at existing rows.
	var edges []edge
	for _, f := range in.Type.AllFields() {
		v, _ := in.Get(f.Name)
		if err := w.children(ctx, f.Name, v, &edges); err != nil {
			return err
		}
	}

	body, err := record.Encode(in)
	if err != nil {
		return fmt.Errorf("put %s %s: %w", in.Type.Name, in.ID, err)
	}
	hash, err := ir.RecordHash(in.Type.Name, body)
	if err != nil {
		return fmt.Errorf("put %s %s: %w", in.Type.Name, in.ID, err)
	}
	text, err := marshalBody(body)
	if err != nil {
		return fmt.Errorf("put %s %s: %w", in.Type.Name, in.ID, err)
	}

	result, err := w.tx.ExecContext(ctx, `
		INSERT INTO records (type, id, body, content_hash, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(type, id) DO NOTHING
	`, in.Type.Name, in.ID, text, hash, w.seq+1)
	if err != nil {
		return fmt.Errorf("put %s %s: %w", in.Type.Name, in.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("put %s %s: rows affected: %w", in.Type.Name, in.ID, err)
	}

	if n == 0 {
		var existing string
		err := w.tx.QueryRowContext(ctx, `
			SELECT content_hash FROM records WHERE type = ? AND id = ?
		`, in.Type.Name, in.ID).Scan(&existing)
		if err != nil {
			return fmt.Errorf("put %s %s: read existing: %w", in.Type.Name, in.ID, err)
		}
		if existing != hash {
			return fmt.Errorf("put %s %s: %w", in.Type.Name, in.ID, ErrConflict)
		}
		return nil
	}
	w.seq++
	w.written++

	for _, e := range edges {
		_, err := w.tx.ExecContext(ctx, `
			INSERT INTO record_refs (type, id, path, ref_type, ref_id)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(type, id, path) DO NOTHING
		`, in.Type.Name, in.ID, e.path, e.to.Type.Name, e.to.ID)
		if err != nil {
			return fmt.Errorf("put %s %s: reference %s: %w", in.Type.Name, in.ID, e.path, err)
		}
	}
	return nil
}

// children writes every record nested in v and collects an edge for each.
func (w *writer) children(ctx context.Context, path string, v any, edges *[]edge) error {
	switch x := v.(type) {
	case *record.Instance:
		if err := w.put(ctx, x); err != nil {
			return err
		}
		*edges = append(*edges, edge{path: path, to: x})
	case []any:
		for i, item := range x {
			if err := w.children(ctx, fmt.Sprintf("%s[%d]", path, i), item, edges); err != nil {
				return err
			}
		}
	case map[any]any:
		keys := make([]string, 0, len(x))
		byKey := make(map[string]any, len(x))
		for k, item := range x {
			ks := record.KeyText(k)
			keys = append(keys, ks)
			byKey[ks] = item
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := w.children(ctx, path+"["+k+"]", byKey[k], edges); err != nil {
				return err
			}
		}
	}
	return nil
}
