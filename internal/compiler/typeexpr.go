package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/joe/internal/record"
)

// Resolver maps a declared enumeration or record type name to its signature.
type Resolver func(name string) (record.Signature, bool)

// ParseType parses a field type expression.
//
// Grammar:
//
//	expr  = alt { "|" alt }
//	alt   = "null" | term [ "?" ]
//	term  = "bool" | "int" | "float" | "text" | "timestamp"
//	      | "list" [ "[" expr "]" ]
//	      | "tuple" [ "[" expr { "," expr } [ "," "..." ] "]" ]
//	      | "map" [ "[" expr "," expr "]" ]
//	      | Name
//
// A null alternative makes the whole expression optional.
func ParseType(expr string, resolve Resolver) (record.Signature, error) {
	toks, err := lexType(expr)
	if err != nil {
		return nil, err
	}
	p := &typeParser{expr: expr, toks: toks, resolve: resolve}
	sig, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("unexpected %q", p.peek())
	}
	return sig, nil
}

func lexType(expr string) ([]string, error) {
	var toks []string
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '[' || c == ']' || c == ',' || c == '|' || c == '?':
			toks = append(toks, string(c))
			i++
		case strings.HasPrefix(expr[i:], "..."):
			toks = append(toks, "...")
			i += 3
		case isIdentStart(c):
			j := i + 1
			for j < len(expr) && isIdentPart(expr[j]) {
				j++
			}
			toks = append(toks, expr[i:j])
			i = j
		default:
			return nil, fmt.Errorf("type %q: unexpected character %q", expr, c)
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("type expression is empty")
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

type typeParser struct {
	expr    string
	toks    []string
	pos     int
	resolve Resolver
}

func (p *typeParser) done() bool { return p.pos >= len(p.toks) }

func (p *typeParser) peek() string {
	if p.done() {
		return ""
	}
	return p.toks[p.pos]
}

func (p *typeParser) accept(tok string) bool {
	if p.peek() == tok {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.accept(tok) {
		if p.done() {
			return p.errorf("expected %q, got end of expression", tok)
		}
		return p.errorf("expected %q, got %q", tok, p.peek())
	}
	return nil
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q: %s", p.expr, fmt.Sprintf(format, args...))
}

func (p *typeParser) parseExpr() (record.Signature, error) {
	var alts []record.Signature
	nullable := false
	for {
		if p.accept("null") {
			nullable = true
		} else {
			sig, err := p.parseAlt()
			if err != nil {
				return nil, err
			}
			alts = append(alts, sig)
		}
		if !p.accept("|") {
			break
		}
	}

	var sig record.Signature
	switch len(alts) {
	case 0:
		return nil, p.errorf("null needs another alternative")
	case 1:
		sig = alts[0]
	default:
		sig = record.Union{Alts: alts}
	}
	if nullable {
		sig = record.Optional{Inner: sig}
	}
	return sig, nil
}

func (p *typeParser) parseAlt() (record.Signature, error) {
	sig, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.accept("?") {
		sig = record.Optional{Inner: sig}
	}
	return sig, nil
}

func (p *typeParser) parseTerm() (record.Signature, error) {
	if p.done() {
		return nil, p.errorf("unexpected end of expression")
	}
	name := p.toks[p.pos]
	if !isIdentStart(name[0]) {
		return nil, p.errorf("expected a type name, got %q", name)
	}
	p.pos++

	switch name {
	case "bool":
		return record.Bool, nil
	case "int":
		return record.Int, nil
	case "float":
		return record.Float, nil
	case "text":
		return record.Text, nil
	case "timestamp":
		return record.Timestamp, nil
	case "list":
		if !p.accept("[") {
			return record.List{}, nil
		}
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		return record.List{Elem: elem}, nil
	case "tuple":
		if !p.accept("[") {
			return record.Tuple{}, nil
		}
		var t record.Tuple
		for {
			if p.accept("...") {
				t.Unbounded = true
				break
			}
			elem, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			t.Elems = append(t.Elems, elem)
			if !p.accept(",") {
				break
			}
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		if t.Unbounded && len(t.Elems) != 1 {
			return nil, p.errorf("an unbounded tuple takes exactly one element type")
		}
		return t, nil
	case "map":
		if !p.accept("[") {
			return record.Mapping{}, nil
		}
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		return record.Mapping{Key: key, Value: val}, nil
	}

	if p.resolve != nil {
		if sig, ok := p.resolve(name); ok {
			return sig, nil
		}
	}
	return nil, p.errorf("unknown type %q", name)
}
