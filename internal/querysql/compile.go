// Package querysql compiles record queries to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/joe/internal/ir"
	"github.com/roach88/joe/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL over the store's
// records and record_refs tables.
//
// Every compiled query orders by write sequence with an identifier
// tiebreaker, and every value is a ? parameter.
type SQLCompiler struct {
	// Limit caps the number of identifiers returned. Zero means no limit.
	Limit int
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to SQL selecting one id column.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	inner, params, err := c.compileQuery(q)
	if err != nil {
		return "", nil, err
	}

	sql := "SELECT q.id FROM (" + inner + ") AS q ORDER BY " + stableOrderKey("q")
	if c.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, c.Limit)
	}
	return sql, params, nil
}

// compileQuery compiles a query node to a relation of (type, id, seq, body).
func (c *SQLCompiler) compileQuery(q queryir.Query) (string, []any, error) {
	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.Join:
		return c.compileJoin(query)
	case *queryir.Join:
		return c.compileJoin(*query)
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if q.Type == "" {
		return "", nil, fmt.Errorf("select requires a record type")
	}

	sql := "SELECT r.type, r.id, r.seq, r.body FROM records AS r WHERE r.type = ?"
	params := []any{q.Type}
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sql += " AND " + filterSQL
		params = append(params, filterParams...)
	}
	return sql, params, nil
}

// compileJoin keeps the left rows that reference a right row, either by
// holding its identifier in the Via field or through a reference edge
// recorded under Via or one of its elements.
func (c *SQLCompiler) compileJoin(j queryir.Join) (string, []any, error) {
	if j.Via == "" {
		return "", nil, fmt.Errorf("join requires a reference field")
	}
	leftSQL, leftParams, err := c.compileQuery(j.Left)
	if err != nil {
		return "", nil, fmt.Errorf("compile join left: %w", err)
	}
	rightSQL, rightParams, err := c.compileQuery(j.Right)
	if err != nil {
		return "", nil, fmt.Errorf("compile join right: %w", err)
	}

	sql := "SELECT l.type, l.id, l.seq, l.body FROM (" + leftSQL + ") AS l" +
		" WHERE EXISTS (SELECT 1 FROM (" + rightSQL + ") AS t" +
		" WHERE json_extract(l.body, ?) = t.id" +
		" OR EXISTS (SELECT 1 FROM record_refs AS e" +
		" WHERE e.type = l.type AND e.id = l.id AND e.ref_type = t.type AND e.ref_id = t.id" +
		" AND (e.path = ? OR substr(e.path, 1, ?) = ?)))"

	var params []any
	params = append(params, leftParams...)
	params = append(params, rightParams...)
	params = append(params, fieldPath(j.Via), j.Via, len(j.Via)+1, j.Via+"[")
	return sql, params, nil
}

// compilePredicate compiles a predicate on alias r.
// Values are never interpolated.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil // Always true
	}

	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles an Equals predicate to a json_extract comparison.
func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	if eq.Field == "" {
		return "", nil, fmt.Errorf("equals requires a field")
	}
	if _, isNull := eq.Value.(ir.IRNull); isNull {
		return "json_extract(r.body, ?) IS NULL", []any{fieldPath(eq.Field)}, nil
	}

	param, err := irValueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", eq.Field, err)
	}
	return "json_extract(r.body, ?) = ?", []any{fieldPath(eq.Field), param}, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // vacuous truth
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return "(" + strings.Join(sqlParts, " AND ") + ")", allParams, nil
}

// stableOrderKey returns the ORDER BY key for a relation alias.
// COLLATE BINARY keeps identifier ordering independent of locale.
func stableOrderKey(alias string) string {
	return alias + ".seq ASC, " + alias + ".id ASC COLLATE BINARY"
}

// fieldPath returns the JSON path of a top-level body field.
func fieldPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}

// irValueToParam converts a scalar ir.IRValue to a SQL parameter.
// json_extract yields 1 and 0 for JSON booleans, which is how bool
// parameters bind.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRFloat:
		return float64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
