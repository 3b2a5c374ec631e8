package model

import (
	"io"
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/joe/internal/compiler"
	"github.com/roach88/joe/internal/record"
)

var quiet = record.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

// fresh assigns id to new records and stamps them at a fixed time.
func fresh(id string) []record.Option {
	return []record.Option{
		quiet,
		record.WithIDs(func() string { return id }),
		record.WithClock(func() time.Time { return time.Date(2024, 4, 4, 20, 49, 2, 0, time.UTC) }),
	}
}

func lookup(t *testing.T, name string) *record.Type {
	t.Helper()
	typ, ok := MustRegistry().Lookup(name)
	require.True(t, ok, "type %s not declared", name)
	return typ
}

func TestRegistryDeclaresEveryType(t *testing.T) {
	reg, err := Registry()
	require.NoError(t, err)

	var names []string
	for _, typ := range reg.Types() {
		names = append(names, typ.Name)
	}
	assert.ElementsMatch(t, []string{
		"Company", "Product", "ProductAssociation", "AssociatedProduct", "Mission",
		"RequestForInformation", "Physics", "Target", "GroundStation", "Orbit",
		"Attitude", "Maneuver", "Satellite", "Bus", "Propulsion", "Payload",
		"SolarPanel", "Battery", "PowerBudget", "Propagator", "Status",
		"Simulation", "ConstellationDesign", "ConstellationTicket",
		"PropagationTicket", "MultiManeuverTicket", "PropagationResult",
	}, names)

	again, err := Registry()
	require.NoError(t, err)
	assert.Same(t, reg, again)
}

func TestDeclarationsValidate(t *testing.T) {
	errs := compiler.Validate(MustRegistry())
	for _, e := range errs {
		t.Error(e)
	}
}

func TestTemplates(t *testing.T) {
	reg := MustRegistry()
	assert.Equal(t, []string{"GEO", "LEO", "MEO", "SSO-LEO"}, reg.Templates("Orbit"))
	assert.Equal(t, []string{"12U", "16U", "1U", "27U", "2U", "3U", "6U"}, reg.Templates("Bus"))

	raw, err := reg.Instantiate("Orbit", "SSO-LEO", nil)
	require.NoError(t, err)
	orbit, err := record.Construct(lookup(t, "Orbit"), raw, fresh("orbit-1")...)
	require.NoError(t, err)
	inc, _ := orbit.Float("inclination")
	assert.Equal(t, 98.2, inc)
	assert.Equal(t, "orbit-1", orbit.ID)
}

func TestOrbitEccentricity(t *testing.T) {
	orbit := lookup(t, "Orbit")

	tests := []struct {
		name    string
		ecc     any
		wantErr bool
	}{
		{"hyperbolic", 1.5, true},
		{"negative", -0.1, true},
		{"null", nil, false},
		{"near circular", 0.001, false},
		{"parabolic edge", 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{}
			for k, v := range orbit.Example {
				raw[k] = v
			}
			raw["eccentricity"] = tt.ecc

			_, err := record.Construct(orbit, raw, quiet)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, record.IsCode(err, record.ErrCodeValidationFailed))
				var re *record.Error
				require.ErrorAs(t, err, &re)
				assert.Equal(t, "bound:eccentricity", re.Check)
				assert.Equal(t, "eccentricity", re.Path)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestExamplesConstruct(t *testing.T) {
	for _, typ := range MustRegistry().Types() {
		t.Run(typ.Name, func(t *testing.T) {
			in, err := record.Construct(typ, typ.Example, quiet)
			require.NoError(t, err)
			assert.Equal(t, "449465be-5533-40ad-9e85-bfa95b0ee39a", in.ID)
		})
	}
}

func TestFixturesConstruct(t *testing.T) {
	for _, typ := range MustRegistry().Types() {
		t.Run(typ.Name, func(t *testing.T) {
			// ConstellationDesign has 21 nullable fields.
			if record.FixtureCount(typ) > 4096 {
				t.Skipf("%d fixtures", record.FixtureCount(typ))
			}
			raw, err := record.Fixtures(typ)
			require.NoError(t, err)
			for i, f := range raw {
				_, err := record.Construct(typ, f, quiet)
				require.NoError(t, err, "fixture %d", i)
			}
		})
	}
}

func TestPropagationTicketConsolidates(t *testing.T) {
	ticket := lookup(t, "PropagationTicket")
	u := record.NewUniverse()

	in, err := record.Construct(ticket, ticket.Example, quiet, record.WithUniverse(u))
	require.NoError(t, err)

	// One canonical instance per distinct record: the Mission example is
	// reachable from a dozen positions, the Orbit example from two.
	assert.Equal(t, 18, u.Len())

	maneuver, ok := in.Child("maneuver")
	require.True(t, ok)
	physics, ok := in.Child("physics")
	require.True(t, ok)
	m1, _ := maneuver.Child("mission")
	m2, _ := physics.Child("mission")
	assert.Same(t, m1, m2)

	initial, _ := in.Child("initial_orbit")
	final, _ := maneuver.Child("final_orbit")
	assert.Same(t, initial, final)
}

func TestMultiManeuverTicketSharesManeuvers(t *testing.T) {
	ticket := lookup(t, "MultiManeuverTicket")
	in, err := record.Construct(ticket, ticket.Example, quiet)
	require.NoError(t, err)

	v, _ := in.Get("maneuvers")
	maneuvers := v.([]any)
	require.Len(t, maneuvers, 2)
	assert.Same(t, maneuvers[0], maneuvers[1])
}

func TestPropagatorChecks(t *testing.T) {
	prop := lookup(t, "Propagator")

	tests := []struct {
		name      string
		overrides map[string]any
		check     string
	}{
		{"defaults", map[string]any{}, ""},
		{"negative min step", map[string]any{"min_step": -1.0}, "propagator_steps"},
		{"min above max", map[string]any{"min_step": 10.0, "max_step": 5.0, "first_step": 6.0}, "propagator_steps"},
		{"first below min", map[string]any{"min_step": 10.0, "first_step": 1.0}, "propagator_steps"},
		{"first above max", map[string]any{"max_step": 30.0, "first_step": 60.0}, "propagator_steps"},
		{"zero absolute tolerance", map[string]any{"tolerances": []any{0.0, nil}}, "propagator_tolerances"},
		{"negative relative tolerance", map[string]any{"tolerances": []any{0.001, -1.0}}, "propagator_tolerances"},
		{"both tolerances", map[string]any{"tolerances": []any{0.001, 1e-9}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := MustRegistry().Instantiate("Propagator", "", tt.overrides)
			require.NoError(t, err)

			_, err = record.Construct(prop, raw, fresh("p")...)
			if tt.check == "" {
				require.NoError(t, err)
				return
			}
			var re *record.Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, record.ErrCodeValidationFailed, re.Code)
			assert.Equal(t, tt.check, re.Check)
		})
	}
}

func TestPropagatorDefaults(t *testing.T) {
	prop := lookup(t, "Propagator")
	in, err := record.Construct(prop, map[string]any{}, fresh("p")...)
	require.NoError(t, err)

	alg, ok := in.Member("algorithm")
	require.True(t, ok)
	assert.Equal(t, "DOP853", alg.Value)
	tol, _ := in.Get("tolerances")
	assert.Equal(t, []any{0.001, nil}, tol)
}

func TestBatteryDischarge(t *testing.T) {
	battery := lookup(t, "Battery")
	raw, err := MustRegistry().Instantiate("Battery", "", map[string]any{"recommended_discharge_rate": 150.0})
	require.NoError(t, err)

	_, err = record.Construct(battery, raw, fresh("b")...)
	var re *record.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "battery_discharge", re.Check)
}

func TestPropagationResultLengths(t *testing.T) {
	result := lookup(t, "PropagationResult")
	raw, err := MustRegistry().Instantiate("PropagationResult", "", map[string]any{"masses": []any{7.98, 7.97}})
	require.NoError(t, err)

	_, err = record.Construct(result, raw, fresh("r")...)
	var re *record.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "result_lengths", re.Check)
	assert.Contains(t, re.Message, "masses has 2 samples")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(fstest.MapFS{}, "schemas")
	require.Error(t, err)

	_, err = Load(fstest.MapFS{"schemas/README": {Data: []byte("x")}}, "schemas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")

	_, err = Load(fstest.MapFS{
		"schemas/a.cue": {Data: []byte("package model\n\ntypes: A: {doc: \"a\", fields: [{name: \"x\", type: \"Rocket\"}]}\n")},
	}, "schemas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "Rocket"`)
}
