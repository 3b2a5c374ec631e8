package record

import (
	"fmt"

	"github.com/roach88/joe/internal/ir"
)

// Universe is a consolidation scope: at most one canonical instance per
// distinct encoded content. It is not safe for concurrent use.
type Universe struct {
	byHash map[string]*Instance
	order  []*Instance
}

// NewUniverse returns an empty scope.
func NewUniverse() *Universe {
	return &Universe{byHash: make(map[string]*Instance)}
}

// Len returns the number of canonical instances.
func (u *Universe) Len() int { return len(u.order) }

// Members returns the canonical instances in the order they were first seen.
func (u *Universe) Members() []*Instance {
	out := make([]*Instance, len(u.order))
	copy(out, u.order)
	return out
}

// Consolidate rewrites the graph rooted at root so that every reachable
// record is the canonical member of u for its content, and returns the
// canonical root. Children are consolidated before their parents.
// The first instance seen with given content wins.
func (u *Universe) Consolidate(root *Instance) (*Instance, error) {
	return u.consolidate(root, make(map[*Instance]*Instance))
}

func (u *Universe) consolidate(in *Instance, seen map[*Instance]*Instance) (*Instance, error) {
	if canon, ok := seen[in]; ok {
		return canon, nil
	}
	// Provisional entry so a cycle resolves to the node being visited.
	seen[in] = in

	for _, f := range in.Type.AllFields() {
		v, ok := in.values[f.Name]
		if !ok {
			continue
		}
		nv, err := u.consolidateValue(v, seen)
		if err != nil {
			return nil, fmt.Errorf("consolidate %s.%s: %w", in.Type.Name, f.Name, err)
		}
		in.values[f.Name] = nv
	}

	key, err := contentKey(in)
	if err != nil {
		return nil, err
	}
	if canon, ok := u.byHash[key]; ok {
		seen[in] = canon
		return canon, nil
	}
	u.byHash[key] = in
	u.order = append(u.order, in)
	return in, nil
}

// consolidateValue replaces records found in v, descending into lists,
// tuples and mapping values.
func (u *Universe) consolidateValue(v any, seen map[*Instance]*Instance) (any, error) {
	switch x := v.(type) {
	case *Instance:
		if x == nil {
			return v, nil
		}
		return u.consolidate(x, seen)
	case []any:
		for i, item := range x {
			nv, err := u.consolidateValue(item, seen)
			if err != nil {
				return nil, err
			}
			x[i] = nv
		}
		return x, nil
	case map[any]any:
		for k, item := range x {
			nv, err := u.consolidateValue(item, seen)
			if err != nil {
				return nil, err
			}
			x[k] = nv
		}
		return x, nil
	}
	return v, nil
}

func contentKey(in *Instance) (string, error) {
	enc, err := Encode(in)
	if err != nil {
		return "", err
	}
	return ir.RecordHash(in.Type.Name, enc)
}
