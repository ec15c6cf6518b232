package hierarchy

import (
	"sort"

	"github.com/porticoestate/location-hierarchy/internal/normalize"
)

// StreetToLoc3Mapper records which street address each existing
// (loc1, loc2, loc3) triple was built for: the address of the first leaf
// row seen inside the triple. When several triples claim the same address
// the first one wins.
type StreetToLoc3Mapper struct {
	slots map[SlotRef]string
}

// NewStreetToLoc3Mapper builds the mapper from leaves sorted with SortLeaves
func NewStreetToLoc3Mapper(leaves []LeafRecord) *StreetToLoc3Mapper {
	seen := make(map[Loc3Ref]bool)
	slots := make(map[SlotRef]string)
	for _, leaf := range leaves {
		triple := Loc3Ref{Loc1: leaf.Loc1, Loc2: leaf.NormLoc2(), Loc3: leaf.NormLoc3()}
		if seen[triple] {
			continue
		}
		seen[triple] = true

		slot := SlotRef{Loc1: triple.Loc1, Loc2: triple.Loc2, Street: leaf.StreetKey()}
		if _, taken := slots[slot]; !taken {
			slots[slot] = triple.Loc3
		}
	}
	return &StreetToLoc3Mapper{slots: slots}
}

// Lookup returns the loc3 the database historically used for street under loc2
func (m *StreetToLoc3Mapper) Lookup(loc1, loc2 string, street StreetKey) (string, bool) {
	loc3, ok := m.slots[SlotRef{Loc1: loc1, Loc2: loc2, Street: street}]
	return loc3, ok
}

// Loc2Candidates proposes loc2 codes for a building from historical
// evidence, best candidate first.
type Loc2Candidates interface {
	Candidates(loc1 string, building BuildingKey) []string
}

// DisabledLoc2Mapper never proposes anything
type DisabledLoc2Mapper struct{}

// Candidates implements Loc2Candidates
func (DisabledLoc2Mapper) Candidates(string, BuildingKey) []string { return nil }

type evidenceKey struct {
	street string
	number string
}

// NameEvidenceMapper reconstructs which addresses each existing building
// grouping claimed from the trailing numbers of its loc3 names, and ranks
// groupings by how many of a building's own addresses they claimed.
type NameEvidenceMapper struct {
	claimed   map[GroupRef]map[evidenceKey]bool
	groups    map[string][]GroupRef
	own       map[BuildingRef]map[evidenceKey]bool
	scattered map[BuildingRef][]string
}

// NewNameEvidenceMapper builds the mapper. keys must be aligned with leaves.
func NewNameEvidenceMapper(leaves []LeafRecord, keys []BuildingKey, level3 []Level3Entry, streets *StreetNames) *NameEvidenceMapper {
	m := &NameEvidenceMapper{
		claimed:   make(map[GroupRef]map[evidenceKey]bool),
		groups:    make(map[string][]GroupRef),
		own:       make(map[BuildingRef]map[evidenceKey]bool),
		scattered: make(map[BuildingRef][]string),
	}

	for _, entry := range level3 {
		street, number, ok := normalize.ParseNameSuffix(entry.Name)
		if !ok {
			continue
		}
		g := GroupRef{Loc1: entry.Loc1, Loc2: normalize.LocCode(entry.Loc2, Loc2Width)}
		if m.claimed[g] == nil {
			m.claimed[g] = make(map[evidenceKey]bool)
			m.groups[g.Loc1] = append(m.groups[g.Loc1], g)
		}
		m.claimed[g][evidenceKey{street: normalize.StreetNameKey(street), number: number}] = true
	}
	for loc1 := range m.groups {
		groups := m.groups[loc1]
		sort.Slice(groups, func(i, j int) bool { return codeLess(groups[i].Loc2, groups[j].Loc2) })
	}

	seenLoc2 := make(map[BuildingRef]map[string]bool)
	for i, leaf := range leaves {
		ref := BuildingRef{Loc1: leaf.Loc1, Building: keys[i]}
		sk := leaf.StreetKey()
		if m.own[ref] == nil {
			m.own[ref] = make(map[evidenceKey]bool)
			seenLoc2[ref] = make(map[string]bool)
		}
		m.own[ref][evidenceKey{street: normalize.StreetNameKey(streets.Name(sk.StreetID)), number: sk.Number}] = true

		if loc2 := leaf.NormLoc2(); loc2 != "" && !seenLoc2[ref][loc2] {
			seenLoc2[ref][loc2] = true
			m.scattered[ref] = append(m.scattered[ref], loc2)
		}
	}
	for ref := range m.scattered {
		sortCodes(m.scattered[ref])
	}
	return m
}

// Candidates implements Loc2Candidates. Groupings are scored by overlap with
// the building's addresses; ties go to the grouping claiming fewer
// addresses, then the lowest code. Without any overlap the building's
// current loc2 values are returned in ascending order.
func (m *NameEvidenceMapper) Candidates(loc1 string, building BuildingKey) []string {
	ref := BuildingRef{Loc1: loc1, Building: building}
	own := m.own[ref]

	type scored struct {
		loc2    string
		overlap int
		size    int
	}
	var ranked []scored
	for _, g := range m.groups[loc1] {
		claimed := m.claimed[g]
		overlap := 0
		for key := range own {
			if claimed[key] {
				overlap++
			}
		}
		if overlap > 0 {
			ranked = append(ranked, scored{loc2: g.Loc2, overlap: overlap, size: len(claimed)})
		}
	}

	if len(ranked) == 0 {
		return append([]string(nil), m.scattered[ref]...)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.overlap != b.overlap {
			return a.overlap > b.overlap
		}
		if a.size != b.size {
			return a.size < b.size
		}
		return codeLess(a.loc2, b.loc2)
	})

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.loc2
	}
	return out
}
