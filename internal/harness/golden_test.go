package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/joe/internal/model"
)

func TestRunWithGolden_Orbit(t *testing.T) {
	scenario := &Scenario{
		Name:        "golden_orbit",
		Description: "An orbit with a widened integer, then an out-of-range eccentricity",
		IDPrefix:    "golden",
		Steps: []Step{
			{
				Construct: "Orbit",
				As:        "iss",
				Input: map[string]any{
					"semi_major_axis":     6780,
					"eccentricity":        0.0005,
					"inclination":         51.6,
					"argument_of_perigee": 90.0,
					"raan":                10.5,
					"true_anomaly":        0.0,
				},
				Expect: &Expect{Warnings: intPtr(1)},
			},
			{
				Decode: "Orbit",
				JSON:   `{"eccentricity": 1.5}`,
				Expect: &Expect{Error: "VALIDATION_FAILED", Path: "eccentricity", Check: "bound:eccentricity"},
			},
		},
	}

	// Regenerate with: go test ./internal/harness -run TestRunWithGolden_Orbit -update
	result, err := RunWithGolden(t, scenario, model.MustRegistry())
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "deterministic",
		Description: "Two runs produce identical traces",
		Steps: []Step{
			{Construct: "Orbit", Template: "GEO"},
			{Construct: "Bus", Template: "3U"},
		},
	}

	first, err := Run(scenario, model.MustRegistry())
	require.NoError(t, err)
	second, err := Run(scenario, model.MustRegistry())
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func intPtr(n int) *int { return &n }
