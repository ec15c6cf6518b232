package hierarchy

// Statistics summarizes one analysis
type Statistics struct {
	Loc1Count          int `json:"loc1_count" yaml:"loc1_count"`
	Level2Count        int `json:"level2_count" yaml:"level2_count"`
	Level3Count        int `json:"level3_count" yaml:"level3_count"`
	Level4Count        int `json:"level4_count" yaml:"level4_count"`
	UniqueBuildings    int `json:"unique_buildings" yaml:"unique_buildings"`
	SyntheticBuildings int `json:"synthetic_buildings" yaml:"synthetic_buildings"`
	UniqueAddresses    int `json:"unique_addresses" yaml:"unique_addresses"`
	RequiredBuildings  int `json:"required_buildings" yaml:"required_buildings"`
	RequiredEntrances  int `json:"required_entrances" yaml:"required_entrances"`
	MisplacedRows      int `json:"misplaced_rows" yaml:"misplaced_rows"`
	MissingLoc2        int `json:"missing_loc2" yaml:"missing_loc2"`
	MissingLoc3        int `json:"missing_loc3" yaml:"missing_loc3"`
	Loc2NameMismatches int `json:"loc2_name_mismatches" yaml:"loc2_name_mismatches"`
	Loc3NameMismatches int `json:"loc3_name_mismatches" yaml:"loc3_name_mismatches"`
	EmptyLevel2        int `json:"empty_level2" yaml:"empty_level2"`
	EmptyLevel3        int `json:"empty_level3" yaml:"empty_level3"`
	InvalidCodes       int `json:"invalid_location_codes" yaml:"invalid_location_codes"`
	OrphanedEntries    int `json:"orphaned_entries" yaml:"orphaned_entries"`
	Warnings           int `json:"warnings" yaml:"warnings"`
}

// collectStatistics counts over the snapshot, keys, assignment and findings
// of one run.
func collectStatistics(snap *Snapshot, keys []BuildingKey, a *Assignment, f *Findings) Statistics {
	loc1s := make(map[string]bool)
	known := make(map[BuildingRef]bool)
	synthetic := make(map[BuildingRef]bool)
	addresses := make(map[SlotRef]bool)

	for i, leaf := range snap.Leaves {
		loc1s[leaf.Loc1] = true
		ref := BuildingRef{Loc1: leaf.Loc1, Building: keys[i]}
		if keys[i].IsSynthetic() {
			synthetic[ref] = true
		} else {
			known[ref] = true
		}
		addresses[SlotRef{Loc1: leaf.Loc1, Street: leaf.StreetKey()}] = true
	}
	for _, e := range snap.Level2 {
		loc1s[e.Loc1] = true
	}

	counts := CountIssues(f.Issues)
	return Statistics{
		Loc1Count:          len(loc1s),
		Level2Count:        len(snap.Level2),
		Level3Count:        len(snap.Level3),
		Level4Count:        len(snap.Leaves),
		UniqueBuildings:    len(known),
		SyntheticBuildings: len(synthetic),
		UniqueAddresses:    len(addresses),
		RequiredBuildings:  len(a.Loc2),
		RequiredEntrances:  len(a.Loc3),
		MisplacedRows:      counts[IssueMisplacedLoc4],
		MissingLoc2:        counts[IssueMissingLoc2],
		MissingLoc3:        counts[IssueMissingLoc3],
		Loc2NameMismatches: counts[IssueLoc2NameMismatch],
		Loc3NameMismatches: counts[IssueLoc3NameMismatch],
		EmptyLevel2:        f.EmptyLevel2,
		EmptyLevel3:        f.EmptyLevel3,
		InvalidCodes:       f.InvalidLocationCodes,
		OrphanedEntries:    f.OrphanedEntries,
		Warnings:           len(f.Warnings),
	}
}

// Add sums two statistics
func (s Statistics) Add(o Statistics) Statistics {
	return Statistics{
		Loc1Count:          s.Loc1Count + o.Loc1Count,
		Level2Count:        s.Level2Count + o.Level2Count,
		Level3Count:        s.Level3Count + o.Level3Count,
		Level4Count:        s.Level4Count + o.Level4Count,
		UniqueBuildings:    s.UniqueBuildings + o.UniqueBuildings,
		SyntheticBuildings: s.SyntheticBuildings + o.SyntheticBuildings,
		UniqueAddresses:    s.UniqueAddresses + o.UniqueAddresses,
		RequiredBuildings:  s.RequiredBuildings + o.RequiredBuildings,
		RequiredEntrances:  s.RequiredEntrances + o.RequiredEntrances,
		MisplacedRows:      s.MisplacedRows + o.MisplacedRows,
		MissingLoc2:        s.MissingLoc2 + o.MissingLoc2,
		MissingLoc3:        s.MissingLoc3 + o.MissingLoc3,
		Loc2NameMismatches: s.Loc2NameMismatches + o.Loc2NameMismatches,
		Loc3NameMismatches: s.Loc3NameMismatches + o.Loc3NameMismatches,
		EmptyLevel2:        s.EmptyLevel2 + o.EmptyLevel2,
		EmptyLevel3:        s.EmptyLevel3 + o.EmptyLevel3,
		InvalidCodes:       s.InvalidCodes + o.InvalidCodes,
		OrphanedEntries:    s.OrphanedEntries + o.OrphanedEntries,
		Warnings:           s.Warnings + o.Warnings,
	}
}

// StatRow is one labelled statistic
type StatRow struct {
	Label string
	Value int
}

// Rows lists the statistics in report order
func (s Statistics) Rows() []StatRow {
	return []StatRow{
		{"Properties (level 1)", s.Loc1Count},
		{"Buildings (level 2)", s.Level2Count},
		{"Entrances (level 3)", s.Level3Count},
		{"Units (level 4)", s.Level4Count},
		{"Unique building numbers", s.UniqueBuildings},
		{"Buildings without number", s.SyntheticBuildings},
		{"Unique street addresses", s.UniqueAddresses},
		{"Required buildings", s.RequiredBuildings},
		{"Required entrances", s.RequiredEntrances},
		{"Misplaced units", s.MisplacedRows},
		{"Missing buildings", s.MissingLoc2},
		{"Missing entrances", s.MissingLoc3},
		{"Building name mismatches", s.Loc2NameMismatches},
		{"Entrance name mismatches", s.Loc3NameMismatches},
		{"Unused buildings", s.EmptyLevel2},
		{"Unused entrances", s.EmptyLevel3},
		{"Invalid location codes", s.InvalidCodes},
		{"Orphaned entries", s.OrphanedEntries},
		{"Warnings", s.Warnings},
	}
}
