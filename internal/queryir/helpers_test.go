package queryir

import "github.com/roach88/joe/internal/record"

var (
	tierEnum = record.NewEnum("Tier", "GOLD", "gold", "SILVER", "silver")

	companyType = &record.Type{
		Name: "Company",
		Fields: []record.Field{
			{Name: "name", Sig: record.Text},
			{Name: "tier", Sig: tierEnum},
			{Name: "founded", Sig: record.Optional{Inner: record.Timestamp}},
		},
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
			{Name: "tags", Sig: record.Mapping{Key: record.Text, Value: record.Text}},
		},
	}
)

func lookup(name string) (*record.Type, bool) {
	for _, t := range []*record.Type{companyType, stationType, missionType} {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
