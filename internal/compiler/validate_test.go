package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidRegistry(t *testing.T) {
	reg, err := CompileString(orbitDecls, nil)
	require.NoError(t, err)

	errs := Validate(reg)
	assert.Empty(t, errs, "valid declarations should have no errors")
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		code  string
		field string
	}{
		{
			name:  "missing doc",
			src:   `types: A: {fields: [], example: {}}`,
			code:  ErrTypeDocEmpty,
			field: "types.A.doc",
		},
		{
			name:  "missing example",
			src:   `types: A: {doc: "a", fields: []}`,
			code:  ErrTypeNoExample,
			field: "types.A.example",
		},
		{
			name: "example fails its checks",
			src: `types: Orbit: {
				doc: "o"
				fields: [{name: "eccentricity", type: "float?"}]
				checks: [{bound: {field: "eccentricity", min: 0, max: 1}}]
				example: {eccentricity: 1.5}
			}`,
			code:  ErrExampleInvalid,
			field: "types.Orbit.example",
		},
		{
			name: "example has wrong type",
			src: `types: A: {
				doc: "a"
				fields: [{name: "when", type: "timestamp"}]
				example: {when: "yesterday"}
			}`,
			code:  ErrExampleInvalid,
			field: "types.A.example",
		},
		{
			name: "template fails its checks",
			src: `types: Orbit: {
				doc: "o"
				fields: [{name: "eccentricity", type: "float?"}]
				checks: [{bound: {field: "eccentricity", min: 0, max: 1}}]
				example: {eccentricity: 0.5}
			}
			templates: Orbit: Escape: {eccentricity: 2.0}`,
			code:  ErrTemplateInvalid,
			field: "templates.Orbit.Escape",
		},
		{
			name: "default does not coerce",
			src: `enums: Frame: ["ICRF"]
			types: A: {
				doc: "a"
				fields: [{name: "frame", type: "Frame", default: "TEME"}]
				example: {frame: "ICRF"}
			}`,
			code:  ErrDefaultInvalid,
			field: "types.A.fields[0].default",
		},
		{
			name:  "enum label collides with another value",
			src:   `enums: Mode: [{label: "A", value: "B"}, {label: "B", value: "C"}]`,
			code:  ErrEnumLabelConflict,
			field: "enums.Mode",
		},
		{
			name:  "enum values differ only in normalization",
			src:   `enums: Site: [{label: "Composed", value: "Caf\u00e9"}, {label: "Decomposed", value: "Cafe\u0301"}]`,
			code:  ErrEnumLookalike,
			field: "enums.Site",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := CompileString(tt.src, nil)
			require.NoError(t, err)

			errs := Validate(reg)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	reg, err := CompileString(`
types: A: {fields: []}
types: B: {fields: []}
`, nil)
	require.NoError(t, err)

	errs := Validate(reg)
	// Each type lacks both doc and example.
	assert.Len(t, errs, 4)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "types.A.doc", Message: "doc is required", Code: ErrTypeDocEmpty}
	assert.Equal(t, "[E101] types.A.doc: doc is required", err.Error())
}
