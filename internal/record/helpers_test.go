package record

import (
	"time"
)

const (
	exampleID   = "449465be-5533-40ad-9e85-bfa95b0ee39a"
	exampleDate = "2024-04-04T20:49:02"
)

func ptr(f float64) *float64 { return &f }

func base(extra map[string]any) map[string]any {
	m := map[string]any{
		FieldID:           exampleID,
		FieldCreationDate: exampleDate,
		FieldUpdateDate:   exampleDate,
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

var orbitState = NewEnum("State", "RUNNING", "Running", "SUCCEEDED", "Succeeded", "FAILED", "Failed")

// catalog is a small hand-built type set covering every signature variant.
type catalog struct {
	company *Type
	mission *Type
	station *Type
	orbit   *Type
	status  *Type
	ticket  *Type
}

func newCatalog() *catalog {
	c := &catalog{}

	c.company = &Type{
		Name:    "Company",
		Fields:  []Field{{Name: "name", Sig: Text}},
		Example: base(map[string]any{"name": "Journey"}),
	}

	c.mission = &Type{
		Name: "Mission",
		Fields: []Field{
			{Name: "created_by", Sig: Ref{Type: c.company}},
			{Name: "name", Sig: Text},
			{Name: "launch_date", Sig: Timestamp},
			{Name: "amd_enabled", Sig: Bool},
		},
		Example: base(map[string]any{
			"created_by":  c.company.Example,
			"name":        "Test Mission",
			"launch_date": exampleDate,
			"amd_enabled": false,
		}),
	}

	c.station = &Type{
		Name: "GroundStation",
		Fields: []Field{
			{Name: "name", Sig: Text},
			{Name: "latitude", Sig: Float},
			{Name: "longitude", Sig: Float},
		},
		Checks: []Check{
			Bound("latitude", ptr(-90), ptr(90)),
			Bound("longitude", ptr(-180), ptr(180)),
		},
		Example: base(map[string]any{"name": "Svalbard", "latitude": 78.23, "longitude": 15.39}),
	}

	c.orbit = &Type{
		Name: "Orbit",
		Fields: []Field{
			{Name: "name", Sig: Optional{Inner: Text}},
			{Name: "eccentricity", Sig: Optional{Inner: Float}},
			{Name: "inclination", Sig: Optional{Inner: Float}},
		},
		Checks: []Check{
			Bound("eccentricity", ptr(0), ptr(1)),
			Bound("inclination", ptr(0), ptr(180)),
		},
		Example: base(map[string]any{"name": "LEO", "eccentricity": 0.001, "inclination": 51.6}),
	}

	c.status = &Type{
		Name: "Status",
		Fields: []Field{
			{Name: "state", Sig: orbitState},
			{Name: "percentage", Sig: Float, Default: 0.0, HasDefault: true},
		},
		Example: base(map[string]any{"state": "Running", "percentage": 0.5}),
	}

	c.ticket = &Type{
		Name: "Ticket",
		Fields: []Field{
			{Name: "mission", Sig: Ref{Type: c.mission}},
			{Name: "stations", Sig: List{Elem: Ref{Type: c.station}}},
			{Name: "orbit", Sig: Optional{Inner: Ref{Type: c.orbit}}},
			{Name: "tolerances", Sig: Tuple{Elems: []Signature{Float, Optional{Inner: Float}}}},
			{Name: "budget", Sig: Mapping{Key: Text, Value: Float}},
			{Name: "steps", Sig: Optional{Inner: Int}},
			{Name: "spec", Sig: Optional{Inner: Mapping{}}},
		},
		Example: base(map[string]any{
			"mission":    c.mission.Example,
			"stations":   []any{c.station.Example},
			"orbit":      c.orbit.Example,
			"tolerances": []any{0.001, nil},
			"budget":     map[string]any{"payload": 12.5},
			"steps":      nil,
			"spec":       map[string]any{"mass": 4},
		}),
	}
	return c
}

func fixedClock() func() time.Time {
	ts := time.Date(2024, 4, 4, 20, 49, 2, 0, time.UTC)
	return func() time.Time { return ts }
}
