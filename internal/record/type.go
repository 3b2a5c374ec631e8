package record

// Names of the base fields every record carries.
const (
	FieldID           = "id"
	FieldCreationDate = "creation_date"
	FieldUpdateDate   = "update_date"
)

// Type is the schema of one domain entity.
type Type struct {
	Name string
	Doc  string

	// Fields are the declared fields in order, excluding the base fields.
	Fields []Field

	// Checks run in order after every field is coerced. The first failure
	// aborts construction.
	Checks []Check

	// Example is one canonical raw field map, used by the fixture generator.
	Example map[string]any
}

// Field is a named, typed slot on a record.
type Field struct {
	Name       string
	Sig        Signature
	Doc        string
	Default    any
	HasDefault bool
}

// BaseFields returns the identifier and timestamp fields shared by all types.
func BaseFields() []Field {
	return []Field{
		{Name: FieldID, Sig: Text, Doc: "Opaque identifier"},
		{Name: FieldCreationDate, Sig: Timestamp, Doc: "Creation timestamp"},
		{Name: FieldUpdateDate, Sig: Timestamp, Doc: "Last update timestamp"},
	}
}

// AllFields returns the base fields followed by the declared fields.
func (t *Type) AllFields() []Field {
	return append(BaseFields(), t.Fields...)
}

// Field returns the named field, base fields included.
func (t *Type) Field(name string) (Field, bool) {
	for _, f := range t.AllFields() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t *Type) String() string { return t.Name }
