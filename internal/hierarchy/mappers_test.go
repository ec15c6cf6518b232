package hierarchy

import (
	"reflect"
	"testing"
)

func TestStreetToLoc3Mapper(t *testing.T) {
	leaves := []LeafRecord{
		leaf("1", "01", "01", "001", 10, 5, "1"),
		leaf("1", "01", "01", "002", 10, 5, "2"),
		leaf("1", "01", "02", "001", 10, 5, "2"),
		leaf("1", "01", "03", "001", 10, 5, "1"),
		leaf("1", "1", "04", "001", 10, 7, "9"),
	}
	SortLeaves(leaves)
	m := NewStreetToLoc3Mapper(leaves)

	tests := []struct {
		name   string
		loc2   string
		street StreetKey
		want   string
		ok     bool
	}{
		{"first row of triple", "01", StreetKey{5, "1"}, "01", true},
		{"later triple for same street ignored", "01", StreetKey{5, "1"}, "01", true},
		{"second row of triple ignored", "01", StreetKey{5, "2"}, "02", true},
		{"normalized loc2", "01", StreetKey{7, "9"}, "04", true},
		{"unknown street", "01", StreetKey{5, "3"}, "", false},
		{"unknown loc2", "02", StreetKey{5, "1"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Lookup("1", tt.loc2, tt.street)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Lookup(%s, %s) = %q, %v; want %q, %v", tt.loc2, tt.street, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNameEvidenceMapper(t *testing.T) {
	streets := NewStreetNames()
	streets.Set(5, "Kongens gate")
	streets.Set(6, "Storgata")

	level3 := []Level3Entry{
		{Loc1: "1", Loc2: "01", Loc3: "01", Name: "Kongens gate 1"},
		{Loc1: "1", Loc2: "01", Loc3: "02", Name: "Kongens gate 2"},
		{Loc1: "1", Loc2: "01", Loc3: "03", Name: "KONGENS GATE 3"},
		{Loc1: "1", Loc2: "2", Loc3: "01", Name: "Inngang Kongens gate 1"},
		{Loc1: "1", Loc2: "03", Loc3: "01", Name: "Kongens gate 2"},
		{Loc1: "1", Loc2: "04", Loc3: "01", Name: "Storgata"},
	}
	leaves := []LeafRecord{
		leaf("1", "05", "01", "001", 10, 5, "1"),
		leaf("1", "01", "01", "001", 20, 5, "3"),
		leaf("1", "01", "01", "002", 20, 5, "2"),
		leaf("1", "07", "01", "001", 30, 6, "8"),
		leaf("1", "06", "01", "001", 30, 6, "9"),
	}
	SortLeaves(leaves)
	m := NewNameEvidenceMapper(leaves, AssignBuildingKeys(leaves, false), level3, streets)

	tests := []struct {
		name     string
		building BuildingKey
		want     []string
	}{
		{"more specific grouping first", Known(10), []string{"02", "01"}},
		{"overlap decides", Known(20), []string{"01", "03"}},
		{"no overlap falls back to current loc2", Known(30), []string{"06", "07"}},
		{"unknown building", Known(99), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Candidates("1", tt.building)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates(%s) = %v, want %v", tt.building, got, tt.want)
			}
		})
	}

	if got := (DisabledLoc2Mapper{}).Candidates("1", Known(10)); got != nil {
		t.Errorf("disabled mapper proposed %v", got)
	}
}
