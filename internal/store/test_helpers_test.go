package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/joe/internal/record"
)

const testDate = "2024-04-04T20:49:02"

var quiet = record.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var (
	companyType = &record.Type{
		Name:   "Company",
		Fields: []record.Field{{Name: "name", Sig: record.Text}},
	}
	stationType = &record.Type{
		Name: "GroundStation",
		Fields: []record.Field{
			{Name: "name", Sig: record.Text},
			{Name: "latitude", Sig: record.Float},
		},
	}
	missionType = &record.Type{
		Name: "Mission",
		Fields: []record.Field{
			{Name: "created_by", Sig: record.Ref{Type: companyType}},
			{Name: "name", Sig: record.Text},
			{Name: "stations", Sig: record.List{Elem: record.Ref{Type: stationType}}},
		},
	}
)

func company(id, name string) map[string]any {
	return map[string]any{"id": id, "creation_date": testDate, "update_date": testDate, "name": name}
}

func station(id, name string, lat float64) map[string]any {
	return map[string]any{"id": id, "creation_date": testDate, "update_date": testDate, "name": name, "latitude": lat}
}

// createTestMission constructs a Mission owning one Company and the given
// ground stations.
func createTestMission(t *testing.T, id, name string, created map[string]any, stations ...map[string]any) *record.Instance {
	t.Helper()
	list := make([]any, len(stations))
	for i, s := range stations {
		list[i] = s
	}
	in, err := record.Construct(missionType, map[string]any{
		"id":            id,
		"creation_date": testDate,
		"update_date":   testDate,
		"created_by":    created,
		"name":          name,
		"stations":      list,
	}, quiet)
	if err != nil {
		t.Fatalf("Construct() failed: %v", err)
	}
	return in
}
