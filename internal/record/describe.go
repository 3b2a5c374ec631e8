package record

// FieldInfo describes one field for display.
type FieldInfo struct {
	Name       string `json:"name"`
	Signature  string `json:"signature"`
	Nullable   bool   `json:"nullable"`
	Default    any    `json:"default,omitempty"`
	HasDefault bool   `json:"has_default"`
	Doc        string `json:"doc,omitempty"`
}

// Describe returns the field table of t, base fields first.
func Describe(t *Type) []FieldInfo {
	fields := t.AllFields()
	out := make([]FieldInfo, len(fields))
	for i, f := range fields {
		out[i] = FieldInfo{
			Name:       f.Name,
			Signature:  f.Sig.String(),
			Nullable:   Nullable(f.Sig),
			Default:    f.Default,
			HasDefault: f.HasDefault,
			Doc:        f.Doc,
		}
	}
	return out
}
