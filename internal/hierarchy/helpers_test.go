package hierarchy

import (
	"context"
	"sort"
)

// memSource is an in-memory Source
type memSource struct {
	leaves  []LeafRecord
	level1  []Level1Entry
	level2  []Level2Entry
	level3  []Level3Entry
	streets map[int64]string
	tables  map[string][]string

	leafErr     error
	lookups     int
	leafQueries []string
}

func (m *memSource) QueryLeafRows(_ context.Context, loc1 string) ([]LeafRecord, error) {
	m.leafQueries = append(m.leafQueries, loc1)
	if m.leafErr != nil {
		return nil, m.leafErr
	}
	var out []LeafRecord
	for _, l := range m.leaves {
		if loc1 == "" || l.Loc1 == loc1 {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memSource) QueryLevel1(_ context.Context, loc1 string) ([]Level1Entry, error) {
	var out []Level1Entry
	for _, e := range m.level1 {
		if loc1 == "" || e.Loc1 == loc1 {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSource) QueryLevel2(_ context.Context, loc1 string) ([]Level2Entry, error) {
	var out []Level2Entry
	for _, e := range m.level2 {
		if loc1 == "" || e.Loc1 == loc1 {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSource) QueryLevel3(_ context.Context, loc1 string) ([]Level3Entry, error) {
	var out []Level3Entry
	for _, e := range m.level3 {
		if loc1 == "" || e.Loc1 == loc1 {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSource) LookupStreetName(_ context.Context, id int64) (string, error) {
	m.lookups++
	return m.streets[id], nil
}

func (m *memSource) ListTablesWithLocationColumns(context.Context) (map[string][]string, error) {
	return m.tables, nil
}

func (m *memSource) ListLoc1(context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, l := range m.leaves {
		if !seen[l.Loc1] {
			seen[l.Loc1] = true
			out = append(out, l.Loc1)
		}
	}
	for _, e := range m.level2 {
		if !seen[e.Loc1] {
			seen[e.Loc1] = true
			out = append(out, e.Loc1)
		}
	}
	sort.Strings(out)
	return out, nil
}

// apply mimics executing every batch against the in-memory store
func (m *memSource) apply(f *Findings) {
	moves := make(map[string]Correction, len(f.Corrections))
	for _, c := range f.Corrections {
		moves[c.OldLocationCode] = c
	}
	for i, l := range m.leaves {
		if c, ok := moves[l.StoredCode()]; ok {
			m.leaves[i].LocationCode = c.NewLocationCode
			m.leaves[i].Loc2 = c.NewLoc2
			m.leaves[i].Loc3 = c.NewLoc3
		}
	}

	for _, e := range f.MissingLoc2 {
		e.LocationCode = e.Loc1 + "-" + e.Loc2
		m.level2 = append(m.level2, e)
	}
	for _, e := range f.MissingLoc3 {
		e.LocationCode = e.Loc1 + "-" + e.Loc2 + "-" + e.Loc3
		m.level3 = append(m.level3, e)
	}
	for _, u := range f.Loc2Names {
		for i, e := range m.level2 {
			if e.Loc1 == u.Loc1 && e.Loc2 == u.Loc2 {
				m.level2[i].Name = u.Name
			}
		}
	}
	for _, u := range f.Loc3Names {
		for i, e := range m.level3 {
			if e.Loc1 == u.Loc1 && e.Loc2 == u.Loc2 && e.Loc3 == u.Loc3 {
				m.level3[i].Name = u.Name
			}
		}
	}
}

func ptr(v int64) *int64 { return &v }

func leaf(loc1, loc2, loc3, loc4 string, bygningsnr, street int64, number string) LeafRecord {
	l := LeafRecord{Loc1: loc1, Loc2: loc2, Loc3: loc3, Loc4: loc4, StreetNumber: number}
	if bygningsnr > 0 {
		l.Bygningsnr = ptr(bygningsnr)
	}
	if street > 0 {
		l.StreetID = ptr(street)
	}
	return l
}

func snapshotOf(m *memSource, loc1 string) *Snapshot {
	snap, err := NewLoader(m, nil, false).Load(context.Background(), loc1)
	if err != nil {
		panic(err)
	}
	return snap
}

// messySite has two addresses merged under one entrance, a unit filed under
// the wrong building, a unit without building number and stale names.
func messySite() *memSource {
	return &memSource{
		streets: map[int64]string{10: "Kongens gate", 20: "Storgata"},
		level1:  []Level1Entry{{LocationCode: "5000", Loc1: "5000"}},
		level2: []Level2Entry{
			{Loc1: "5000", Loc2: "01", Name: "Old name"},
			{Loc1: "5000", Loc2: "02", Name: "Kongens gate 2"},
		},
		level3: []Level3Entry{
			{Loc1: "5000", Loc2: "01", Loc3: "01", Name: "Inngang Kongens gate 1"},
			{Loc1: "5000", Loc2: "01", Loc3: "02", Name: "Kongens gate 3"},
			{Loc1: "5000", Loc2: "02", Loc3: "01", Name: "Kongens gate 2"},
		},
		leaves: []LeafRecord{
			leaf("5000", "01", "01", "001", 100, 10, "1"),
			leaf("5000", "01", "01", "002", 100, 10, "1"),
			leaf("5000", "01", "01", "003", 100, 10, "3"),
			leaf("5000", "01", "02", "001", 100, 10, "3"),
			leaf("5000", "02", "01", "001", 200, 10, "2"),
			leaf("5000", "01", "01", "004", 200, 10, "2"),
			leaf("5000", "03", "01", "001", 0, 20, "5"),
		},
		tables: map[string][]string{
			"fm_location4":     {"location_code", "loc1", "loc2", "loc3", "loc4"},
			"fm_tts_tickets":   {"id", "location_code", "loc1", "loc2", "loc3"},
			"fm_document":      {"id", "location_code"},
			"location_mapping": {"old_location_code", "location_code"},
			"fm_entity_1_1":    {"id", "loc1"},
		},
	}
}
