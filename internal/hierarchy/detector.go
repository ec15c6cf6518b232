package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/porticoestate/location-hierarchy/internal/normalize"
)

// Change types recorded in the audit table
const (
	ChangeIncorrectBuilding = "incorrect_building"
	ChangeIncorrectEntrance = "incorrect_entrance"
)

// Correction moves one leaf row. Old values are the stored ones.
type Correction struct {
	OldLocationCode string `json:"old_location_code" yaml:"old_location_code"`
	NewLocationCode string `json:"new_location_code" yaml:"new_location_code"`
	Loc1            string `json:"loc1" yaml:"loc1"`
	OldLoc2         string `json:"old_loc2" yaml:"old_loc2"`
	NewLoc2         string `json:"new_loc2" yaml:"new_loc2"`
	OldLoc3         string `json:"old_loc3" yaml:"old_loc3"`
	NewLoc3         string `json:"new_loc3" yaml:"new_loc3"`
	Loc4            string `json:"loc4" yaml:"loc4"`
	Bygningsnr      *int64 `json:"bygningsnr,omitempty" yaml:"bygningsnr,omitempty"`
	StreetID        *int64 `json:"street_id,omitempty" yaml:"street_id,omitempty"`
	StreetNumber    string `json:"street_number" yaml:"street_number"`
	ChangeType      string `json:"change_type" yaml:"change_type"`
}

// Findings is everything the detector derives from one snapshot and its
// canonical assignment. Name updates carry the stored codes of the entry
// to update and the expected name.
type Findings struct {
	Issues      []Issue
	Corrections []Correction
	MissingLoc2 []Level2Entry
	MissingLoc3 []Level3Entry
	Loc2Names   []Level2Entry
	Loc3Names   []Level3Entry
	Warnings    []Warning

	EmptyLevel2          int
	EmptyLevel3          int
	InvalidLocationCodes int
	OrphanedEntries      int
}

// Merge appends other to f
func (f *Findings) Merge(other *Findings) {
	f.Issues = append(f.Issues, other.Issues...)
	f.Corrections = append(f.Corrections, other.Corrections...)
	f.MissingLoc2 = append(f.MissingLoc2, other.MissingLoc2...)
	f.MissingLoc3 = append(f.MissingLoc3, other.MissingLoc3...)
	f.Loc2Names = append(f.Loc2Names, other.Loc2Names...)
	f.Loc3Names = append(f.Loc3Names, other.Loc3Names...)
	f.Warnings = append(f.Warnings, other.Warnings...)
	f.EmptyLevel2 += other.EmptyLevel2
	f.EmptyLevel3 += other.EmptyLevel3
	f.InvalidLocationCodes += other.InvalidLocationCodes
	f.OrphanedEntries += other.OrphanedEntries
}

// Detector diffs a canonical assignment against the stored hierarchy
type Detector struct {
	names *NameSynthesizer
}

// NewDetector creates a detector naming groupings with names
func NewDetector(names *NameSynthesizer) *Detector {
	return &Detector{names: names}
}

// Detect compares every leaf, building and street slot of the snapshot with
// the assignment. keys must be aligned with snap.Leaves.
func (d *Detector) Detect(snap *Snapshot, keys []BuildingKey, a *Assignment) *Findings {
	f := &Findings{}
	level2 := indexLevel2(snap.Level2)
	level3 := indexLevel3(snap.Level3)
	d.detectMoves(f, snap.Leaves, keys, a, level2, level3)

	// street keys of every canonical loc2
	slots := make(map[GroupRef][]StreetKey)
	for slot := range a.Loc3 {
		slots[slot.Group()] = append(slots[slot.Group()], slot.Street)
	}

	buildings := make([]BuildingRef, 0, len(a.Loc2))
	for ref := range a.Loc2 {
		buildings = append(buildings, ref)
	}
	sort.Slice(buildings, func(i, j int) bool {
		x, y := buildings[i], buildings[j]
		if x.Loc1 != y.Loc1 {
			return x.Loc1 < y.Loc1
		}
		return codeLess(a.Loc2[x], a.Loc2[y])
	})

	canonicalGroups := make(map[GroupRef]bool)
	for _, ref := range buildings {
		g := GroupRef{Loc1: ref.Loc1, Loc2: a.Loc2[ref]}
		canonicalGroups[g] = true
		expected := d.names.Loc2Name(slots[g])

		entry, ok := level2[g]
		if !ok {
			f.Issues = append(f.Issues, Issue{
				Kind:     IssueMissingLoc2,
				Loc1:     g.Loc1,
				Building: ref.Building.String(),
				Expected: g.Loc2,
			})
			f.MissingLoc2 = append(f.MissingLoc2, Level2Entry{
				Loc1: g.Loc1,
				Loc2: g.Loc2,
				Name: d.names.NewLoc2Name(ref.Building, slots[g]),
			})
			f.Loc2Names = append(f.Loc2Names, Level2Entry{Loc1: g.Loc1, Loc2: g.Loc2, Name: expected})
			continue
		}
		if entry.Name != expected {
			f.Issues = append(f.Issues, Issue{
				Kind:     IssueLoc2NameMismatch,
				Loc1:     g.Loc1,
				Loc2:     g.Loc2,
				Building: ref.Building.String(),
				Expected: expected,
				Actual:   entry.Name,
			})
			f.Loc2Names = append(f.Loc2Names, Level2Entry{Loc1: entry.Loc1, Loc2: entry.Loc2, Name: expected})
		}
	}

	slotRefs := make([]SlotRef, 0, len(a.Loc3))
	for slot := range a.Loc3 {
		slotRefs = append(slotRefs, slot)
	}
	sort.Slice(slotRefs, func(i, j int) bool {
		x, y := slotRefs[i], slotRefs[j]
		if x.Loc1 != y.Loc1 {
			return x.Loc1 < y.Loc1
		}
		if x.Loc2 != y.Loc2 {
			return codeLess(x.Loc2, y.Loc2)
		}
		return codeLess(a.Loc3[x], a.Loc3[y])
	})

	canonicalSlots := make(map[Loc3Ref]bool)
	for _, slot := range slotRefs {
		ref := Loc3Ref{Loc1: slot.Loc1, Loc2: slot.Loc2, Loc3: a.Loc3[slot]}
		canonicalSlots[ref] = true
		expected := d.names.Loc3Name(slot.Street)

		entry, ok := level3[ref]
		if !ok {
			f.Issues = append(f.Issues, Issue{
				Kind:         IssueMissingLoc3,
				Loc1:         ref.Loc1,
				Loc2:         ref.Loc2,
				StreetID:     slot.Street.StreetID,
				StreetNumber: slot.Street.Number,
				Expected:     ref.Loc3,
			})
			f.MissingLoc3 = append(f.MissingLoc3, Level3Entry{Loc1: ref.Loc1, Loc2: storedLoc2(level2, slot.Group()), Loc3: ref.Loc3, Name: expected})
			continue
		}
		if entry.Name != expected {
			f.Issues = append(f.Issues, Issue{
				Kind:         IssueLoc3NameMismatch,
				Loc1:         ref.Loc1,
				Loc2:         ref.Loc2,
				Loc3:         ref.Loc3,
				StreetID:     slot.Street.StreetID,
				StreetNumber: slot.Street.Number,
				Expected:     expected,
				Actual:       entry.Name,
			})
			f.Loc3Names = append(f.Loc3Names, Level3Entry{Loc1: entry.Loc1, Loc2: entry.Loc2, Loc3: entry.Loc3, Name: expected})
		}
	}

	for g := range level2 {
		if !canonicalGroups[g] {
			f.EmptyLevel2++
		}
	}
	for ref := range level3 {
		if !canonicalSlots[ref] {
			f.EmptyLevel3++
		}
	}

	checkIntegrity(snap, f)
	return f
}

// detectMoves records a correction for every leaf whose normalized codes
// differ from the assignment. The new codes are written the way the target
// grouping is registered, so "4" stays "4" when fm_location2 holds "4".
func (d *Detector) detectMoves(f *Findings, leaves []LeafRecord, keys []BuildingKey, a *Assignment,
	level2 map[GroupRef]Level2Entry, level3 map[Loc3Ref]Level3Entry) {
	type finalCode struct {
		loc1, loc2, loc3, loc4 string
	}
	owners := make(map[finalCode]string)
	for i, leaf := range leaves {
		loc2 := a.Loc2[BuildingRef{Loc1: leaf.Loc1, Building: keys[i]}]
		loc3 := a.Loc3[SlotRef{Loc1: leaf.Loc1, Loc2: loc2, Street: leaf.StreetKey()}]

		final := finalCode{leaf.Loc1, loc2, loc3, strings.TrimSpace(leaf.Loc4)}
		if prev, taken := owners[final]; taken {
			f.Warnings = append(f.Warnings, Warning{
				Kind:    WarnLoc4Collision,
				Loc1:    leaf.Loc1,
				Loc2:    loc2,
				Loc3:    loc3,
				Message: fmt.Sprintf("%s and %s would both become %s-%s-%s-%s", prev, leaf.StoredCode(), leaf.Loc1, loc2, loc3, leaf.Loc4),
			})
		} else {
			owners[final] = leaf.StoredCode()
		}

		if loc2 == leaf.NormLoc2() && loc3 == leaf.NormLoc3() {
			continue
		}

		change := ChangeIncorrectEntrance
		if loc2 != leaf.NormLoc2() {
			change = ChangeIncorrectBuilding
		}
		newLoc2 := storedLoc2(level2, GroupRef{Loc1: leaf.Loc1, Loc2: loc2})
		newLoc3 := storedLoc3(level3, Loc3Ref{Loc1: leaf.Loc1, Loc2: loc2, Loc3: loc3})
		c := Correction{
			OldLocationCode: leaf.StoredCode(),
			NewLocationCode: fmt.Sprintf("%s-%s-%s-%s", leaf.Loc1, newLoc2, newLoc3, leaf.Loc4),
			Loc1:            leaf.Loc1,
			OldLoc2:         leaf.Loc2,
			NewLoc2:         newLoc2,
			OldLoc3:         leaf.Loc3,
			NewLoc3:         newLoc3,
			Loc4:            leaf.Loc4,
			Bygningsnr:      leaf.Bygningsnr,
			StreetID:        leaf.StreetID,
			StreetNumber:    leaf.StreetNumber,
			ChangeType:      change,
		}
		f.Corrections = append(f.Corrections, c)

		sk := leaf.StreetKey()
		f.Issues = append(f.Issues, Issue{
			Kind:         IssueMisplacedLoc4,
			Loc1:         leaf.Loc1,
			Loc2:         leaf.Loc2,
			Loc3:         leaf.Loc3,
			Loc4:         leaf.Loc4,
			Building:     keys[i].String(),
			StreetID:     sk.StreetID,
			StreetNumber: sk.Number,
			Expected:     c.NewLocationCode,
			Actual:       c.OldLocationCode,
		})
	}
}

// indexLevel2 keys entries by normalized code. When two stored codes
// normalize alike the lowest raw code wins.
func indexLevel2(entries []Level2Entry) map[GroupRef]Level2Entry {
	sorted := append([]Level2Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Loc1 != sorted[j].Loc1 {
			return sorted[i].Loc1 < sorted[j].Loc1
		}
		return sorted[i].Loc2 < sorted[j].Loc2
	})
	index := make(map[GroupRef]Level2Entry, len(sorted))
	for _, e := range sorted {
		g := GroupRef{Loc1: e.Loc1, Loc2: normalize.LocCode(e.Loc2, Loc2Width)}
		if _, ok := index[g]; !ok {
			index[g] = e
		}
	}
	return index
}

func indexLevel3(entries []Level3Entry) map[Loc3Ref]Level3Entry {
	sorted := append([]Level3Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		x, y := sorted[i], sorted[j]
		if x.Loc1 != y.Loc1 {
			return x.Loc1 < y.Loc1
		}
		if x.Loc2 != y.Loc2 {
			return x.Loc2 < y.Loc2
		}
		return x.Loc3 < y.Loc3
	})
	index := make(map[Loc3Ref]Level3Entry, len(sorted))
	for _, e := range sorted {
		ref := Loc3Ref{
			Loc1: e.Loc1,
			Loc2: normalize.LocCode(e.Loc2, Loc2Width),
			Loc3: normalize.LocCode(e.Loc3, Loc3Width),
		}
		if _, ok := index[ref]; !ok {
			index[ref] = e
		}
	}
	return index
}

// storedLoc2 returns the registered spelling of a canonical loc2, or the
// canonical code when none is registered
func storedLoc2(level2 map[GroupRef]Level2Entry, g GroupRef) string {
	if e, ok := level2[g]; ok {
		return e.Loc2
	}
	return g.Loc2
}

func storedLoc3(level3 map[Loc3Ref]Level3Entry, ref Loc3Ref) string {
	if e, ok := level3[ref]; ok {
		return e.Loc3
	}
	return ref.Loc3
}
