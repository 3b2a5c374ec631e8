package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/joe/internal/ir"
	"github.com/roach88/joe/internal/record"
)

func TestValidate_ValidQueries(t *testing.T) {
	tests := []struct {
		name  string
		query Query
	}{
		{"bare select", Select{Type: "Mission"}},
		{"pointer select", &Select{Type: "Company", Filter: &Equals{Field: "name", Value: ir.IRString("Acme")}}},
		{"null comparison", Select{Type: "Company", Filter: Equals{Field: "founded", Value: ir.IRNull{}}}},
		{"empty and", Select{Type: "Company", Filter: And{}}},
		{"join single reference", Join{Left: Select{Type: "Mission"}, Via: "created_by", Right: Select{Type: "Company"}}},
		{"join list of references", &Join{Left: Select{Type: "Mission"}, Via: "stations", Right: Select{Type: "GroundStation"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.query, lookup)
			assert.True(t, result.Valid, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.NoError(t, result.Err())
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "nil query",
			query: nil,
			want:  []string{"nil query"},
		},
		{
			name:  "unknown type",
			query: Select{Type: "Rocket"},
			want:  []string{`unknown record type "Rocket"`},
		},
		{
			name:  "unknown field",
			query: Select{Type: "Company", Filter: Equals{Field: "ceo", Value: ir.IRString("x")}},
			want:  []string{`Company has no field "ceo"`},
		},
		{
			name:  "container field",
			query: Select{Type: "Mission", Filter: Equals{Field: "stations", Value: ir.IRString("gs-1")}},
			want:  []string{"Mission.stations is a list and cannot be compared"},
		},
		{
			name:  "container literal",
			query: Select{Type: "Company", Filter: Equals{Field: "name", Value: ir.IRArray{}}},
			want:  []string{"Company.name compared to a ir.IRArray"},
		},
		{
			name: "errors accumulate through and",
			query: Select{Type: "Company", Filter: And{Predicates: []Predicate{
				Equals{Field: "a", Value: ir.IRInt(1)},
				Equals{Field: "b", Value: ir.IRInt(2)},
			}}},
			want: []string{`Company has no field "a"`, `Company has no field "b"`},
		},
		{
			name:  "join via unknown field",
			query: Join{Left: Select{Type: "Mission"}, Via: "owner", Right: Select{Type: "Company"}},
			want:  []string{`Mission has no field "owner"`},
		},
		{
			name:  "join via field of another type",
			query: Join{Left: Select{Type: "Mission"}, Via: "created_by", Right: Select{Type: "GroundStation"}},
			want:  []string{"Mission.created_by does not reference GroundStation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.query, lookup)
			assert.False(t, result.Valid)
			assert.Equal(t, tt.want, result.Errors)

			err := result.Err()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want[0])
		})
	}
}

func TestRefTargets(t *testing.T) {
	other := &record.Type{Name: "Other"}

	tests := []struct {
		name string
		sig  record.Signature
		want []string
	}{
		{"scalar", record.Text, nil},
		{"reference", record.Ref{Type: companyType}, []string{"Company"}},
		{"optional reference", record.Optional{Inner: record.Ref{Type: companyType}}, []string{"Company"}},
		{"list", record.List{Elem: record.Ref{Type: stationType}}, []string{"GroundStation"}},
		{"bare list", record.List{}, nil},
		{"mapping values only", record.Mapping{Key: record.Text, Value: record.Ref{Type: companyType}}, []string{"Company"}},
		{"tuple", record.Tuple{Elems: []record.Signature{record.Ref{Type: companyType}, record.Ref{Type: other}}}, []string{"Company", "Other"}},
		{
			name: "union deduplicated",
			sig: record.Union{Alts: []record.Signature{
				record.Ref{Type: companyType},
				record.List{Elem: record.Ref{Type: companyType}},
				record.Ref{Type: other},
			}},
			want: []string{"Company", "Other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RefTargets(tt.sig)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
