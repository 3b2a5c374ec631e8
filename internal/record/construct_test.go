package record

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstruct_OrbitEccentricity(t *testing.T) {
	c := newCatalog()

	tests := []struct {
		name         string
		eccentricity any
		wantErr      bool
	}{
		{"out of range", 1.5, true},
		{"null", nil, false},
		{"near circular", 0.001, false},
		{"lower bound", 0.0, false},
		{"upper bound", 1.0, false},
		{"negative", -0.1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Construct(c.orbit, base(map[string]any{"eccentricity": tt.eccentricity}), quiet)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, in)
				var re *Error
				require.ErrorAs(t, err, &re)
				assert.Equal(t, ErrCodeValidationFailed, re.Code)
				assert.Equal(t, "eccentricity", re.Path)
				assert.Equal(t, "bound:eccentricity", re.Check)
				assert.Equal(t, "Orbit", re.Type)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.eccentricity == nil, in.IsNull("eccentricity"))
		})
	}
}

func TestConstruct_BaseFields(t *testing.T) {
	c := newCatalog()

	in, err := Construct(c.company, c.company.Example, quiet)
	require.NoError(t, err)
	assert.Equal(t, exampleID, in.ID)
	ts := time.Date(2024, 4, 4, 20, 49, 2, 0, time.UTC)
	assert.Equal(t, ts, in.Created)
	assert.Equal(t, ts, in.Updated)
	assert.Equal(t, "Company("+exampleID+")", in.String())
}

func TestConstruct_MissingAndUnknownFields(t *testing.T) {
	c := newCatalog()

	_, err := Construct(c.company, base(nil), quiet)
	require.Error(t, err)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeTypeMismatch, re.Code)
	assert.Equal(t, "name", re.Path)
	assert.Contains(t, re.Message, "missing field")

	_, err = Construct(c.company, base(map[string]any{"name": "Journey", "ceo": "x"}), quiet)
	require.Error(t, err)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "ceo", re.Path)
	assert.Contains(t, re.Message, "unknown field")

	// Absent nullable fields default to null.
	in, err := Construct(c.orbit, base(nil), quiet)
	require.NoError(t, err)
	assert.True(t, in.IsNull("name"))
	assert.True(t, in.IsNull("inclination"))
}

func TestConstruct_Defaults(t *testing.T) {
	c := newCatalog()

	in, err := Construct(c.status, base(map[string]any{"state": "Succeeded"}), quiet)
	require.NoError(t, err)
	pct, ok := in.Float("percentage")
	require.True(t, ok)
	assert.Equal(t, 0.0, pct)
	state, ok := in.Member("state")
	require.True(t, ok)
	assert.Equal(t, "SUCCEEDED", state.Label)
}

func TestConstruct_AssignsIDsAndTimestamps(t *testing.T) {
	c := newCatalog()
	n := 0
	ids := func() string {
		n++
		return "id-" + string(rune('0'+n))
	}

	in, err := Construct(c.mission, map[string]any{
		"created_by":  map[string]any{"name": "Journey"},
		"name":        "Test Mission",
		"launch_date": exampleDate,
		"amd_enabled": true,
	}, quiet, WithIDs(ids), WithClock(fixedClock()))
	require.NoError(t, err)

	// Fields are filled in declared order, so the parent id comes first.
	assert.Equal(t, "id-1", in.ID)
	child, ok := in.Child("created_by")
	require.True(t, ok)
	assert.Equal(t, "id-2", child.ID)
	assert.Equal(t, fixedClock()(), in.Created)
	assert.Equal(t, in.Created, in.Updated)
}

func TestConstruct_AllOrNothing(t *testing.T) {
	c := newCatalog()
	raw := base(map[string]any{
		"created_by":  base(map[string]any{"name": 42}),
		"name":        "Test Mission",
		"launch_date": exampleDate,
		"amd_enabled": false,
	})

	in, err := Construct(c.mission, raw, quiet)
	require.Error(t, err)
	assert.Nil(t, in)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "created_by.name", re.Path)
	assert.Equal(t, "Company", re.Type)
}

func TestConstruct_RejectsNonMapping(t *testing.T) {
	c := newCatalog()

	_, err := Construct(c.company, []any{"Journey"}, quiet)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeTypeMismatch))
}

func TestDecode(t *testing.T) {
	c := newCatalog()

	in, err := Decode(c.orbit, []byte(`{
		"id": "449465be-5533-40ad-9e85-bfa95b0ee39a",
		"creation_date": "2024-04-04T20:49:02",
		"update_date": "2024-04-04T20:49:02",
		"eccentricity": 0,
		"inclination": 98.7
	}`), quiet)
	require.NoError(t, err)
	ecc, ok := in.Get("eccentricity")
	require.True(t, ok)
	assert.Equal(t, 0.0, ecc)

	_, err = Decode(c.orbit, []byte(`{"id": `), quiet)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeParseFailure))

	_, err = Decode(c.orbit, []byte(`{} {}`), quiet)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeParseFailure))

	_, err = Decode(c.orbit, []byte(`null`), quiet)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeTypeMismatch))
}

func TestRoundTrip(t *testing.T) {
	c := newCatalog()

	for _, typ := range []*Type{c.company, c.mission, c.station, c.orbit, c.status, c.ticket} {
		t.Run(typ.Name, func(t *testing.T) {
			in, err := Construct(typ, typ.Example, quiet)
			require.NoError(t, err)

			data, err := EncodeJSON(in)
			require.NoError(t, err)

			back, err := Decode(typ, data, quiet)
			require.NoError(t, err)
			assert.True(t, Equal(in, back), "decode(encode(x)) differs for %s:\n%s", typ.Name, data)
		})
	}
}

func TestRoundTrip_KeyedMappings(t *testing.T) {
	budget := &Type{
		Name: "Budget",
		Fields: []Field{
			{Name: "by_orbit", Sig: Mapping{Key: Int, Value: Float}},
			{Name: "by_step", Sig: Mapping{Key: Float, Value: Int}},
			{Name: "enabled", Sig: Mapping{Key: Bool, Value: Text}},
			{Name: "by_time", Sig: Optional{Inner: Mapping{Key: Timestamp, Value: Float}}},
		},
	}
	raw := base(map[string]any{
		"by_orbit": map[any]any{1: 2.5, -40: 0.0},
		"by_step":  map[any]any{0.5: 3, 60.0: 1},
		"enabled":  map[any]any{true: "on", false: "off"},
		"by_time":  map[string]any{"2024-04-04T20:49:02": 1.5},
	})

	in, err := Construct(budget, raw, quiet)
	require.NoError(t, err)
	data, err := EncodeJSON(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"by_orbit":{"-40":0.0,"1":2.5}`)
	assert.Contains(t, string(data), `"by_step":{"0.5":3,"60.0":1}`)

	back, err := Decode(budget, data, quiet)
	require.NoError(t, err, "decoding %s", data)
	assert.True(t, Equal(in, back), "decode(encode(x)) differs:\n%s", data)

	byOrbit, ok := back.Get("by_orbit")
	require.True(t, ok)
	assert.Equal(t, map[any]any{int64(1): 2.5, int64(-40): 0.0}, byOrbit)
	enabled, ok := back.Get("enabled")
	require.True(t, ok)
	assert.Equal(t, map[any]any{true: "on", false: "off"}, enabled)
}

func TestDecode_KeyText(t *testing.T) {
	budget := &Type{
		Name:   "Budget",
		Fields: []Field{{Name: "by_orbit", Sig: Mapping{Key: Int, Value: Float}}},
	}

	tests := []struct {
		name string
		keys string
		path string
	}{
		{"not a number", `{"LEO": 1.0}`, "by_orbit[LEO]"},
		{"fractional", `{"1.5": 1.0}`, "by_orbit[1.5]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fmt.Sprintf(`{"id": "b-1", "creation_date": "2024-04-04T20:49:02", "update_date": "2024-04-04T20:49:02", "by_orbit": %s}`, tt.keys)
			_, err := Decode(budget, []byte(doc), quiet)
			require.Error(t, err)
			assert.Equal(t, ErrCodeTypeMismatch, CodeOf(err))
			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.path, re.Path)
		})
	}
}
