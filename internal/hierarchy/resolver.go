package hierarchy

import (
	"fmt"
	"sort"

	"github.com/porticoestate/location-hierarchy/internal/debug"
	"github.com/porticoestate/location-hierarchy/internal/normalize"
)

// siteState tracks loc2 allocation within one loc1
type siteState struct {
	registered    []string
	registeredSet map[string]bool
	used          map[string]bool
	claimed       map[string]BuildingKey
	memo          map[BuildingKey]string
	dominantOf    map[BuildingKey][]string
}

// groupState tracks loc3 allocation within one (loc1, loc2)
type groupState struct {
	registered    []string
	registeredSet map[string]bool
	used          map[string]bool
	claimed       map[string]StreetKey
	memo          map[StreetKey]string
}

// Resolver computes the canonical hierarchy. Every code it hands out is
// claimed for the rest of the run, which keeps buildings and loc2 codes,
// and street keys and loc3 codes within a loc2, in one-to-one
// correspondence. A Resolver is single use and not safe for concurrent use.
type Resolver struct {
	leaves       []LeafRecord
	keys         []BuildingKey
	loc2Mapper   Loc2Candidates
	streetMapper *StreetToLoc3Mapper

	sites      map[string]*siteState
	groups     map[GroupRef]*groupState
	placements map[SlotRef]map[string]int

	assignment *Assignment
	warnings   []Warning
	debug      bool
}

// NewResolver prepares a resolver over a snapshot. keys must be aligned with
// snap.Leaves; a nil loc2Mapper disables historical loc2 evidence.
func NewResolver(snap *Snapshot, keys []BuildingKey, loc2Mapper Loc2Candidates, localDebug bool) *Resolver {
	if loc2Mapper == nil {
		loc2Mapper = DisabledLoc2Mapper{}
	}
	r := &Resolver{
		leaves:       snap.Leaves,
		keys:         keys,
		loc2Mapper:   loc2Mapper,
		streetMapper: NewStreetToLoc3Mapper(snap.Leaves),
		sites:        make(map[string]*siteState),
		groups:       make(map[GroupRef]*groupState),
		placements:   make(map[SlotRef]map[string]int),
		assignment:   NewAssignment(),
		debug:        localDebug,
	}

	buildingCounts := make(map[GroupRef]map[BuildingKey]int)
	for i, leaf := range snap.Leaves {
		loc2, loc3 := leaf.NormLoc2(), leaf.NormLoc3()
		r.site(leaf.Loc1).used[loc2] = true
		g := GroupRef{Loc1: leaf.Loc1, Loc2: loc2}
		r.group(g).used[loc3] = true

		slot := SlotRef{Loc1: leaf.Loc1, Loc2: loc2, Street: leaf.StreetKey()}
		if r.placements[slot] == nil {
			r.placements[slot] = make(map[string]int)
		}
		r.placements[slot][loc3]++

		if buildingCounts[g] == nil {
			buildingCounts[g] = make(map[BuildingKey]int)
		}
		buildingCounts[g][keys[i]]++
	}

	for _, entry := range snap.Level2 {
		st := r.site(entry.Loc1)
		code := normalize.LocCode(entry.Loc2, Loc2Width)
		if !st.registeredSet[code] {
			st.registeredSet[code] = true
			st.registered = append(st.registered, code)
		}
	}
	for _, entry := range snap.Level3 {
		gs := r.group(GroupRef{Loc1: entry.Loc1, Loc2: normalize.LocCode(entry.Loc2, Loc2Width)})
		code := normalize.LocCode(entry.Loc3, Loc3Width)
		if !gs.registeredSet[code] {
			gs.registeredSet[code] = true
			gs.registered = append(gs.registered, code)
		}
	}
	for _, st := range r.sites {
		sortCodes(st.registered)
	}
	for _, gs := range r.groups {
		sortCodes(gs.registered)
	}

	// A loc2 is dominated by the building with most rows in it; the lowest
	// building key wins ties.
	for g, counts := range buildingCounts {
		var best BuildingKey
		bestCount := 0
		for b, n := range counts {
			if n > bestCount || (n == bestCount && b.Less(best)) {
				best, bestCount = b, n
			}
		}
		st := r.site(g.Loc1)
		st.dominantOf[best] = append(st.dominantOf[best], g.Loc2)
	}
	for _, st := range r.sites {
		for b := range st.dominantOf {
			sortCodes(st.dominantOf[b])
		}
	}
	return r
}

func (r *Resolver) site(loc1 string) *siteState {
	st, ok := r.sites[loc1]
	if !ok {
		st = &siteState{
			registeredSet: make(map[string]bool),
			used:          make(map[string]bool),
			claimed:       make(map[string]BuildingKey),
			memo:          make(map[BuildingKey]string),
			dominantOf:    make(map[BuildingKey][]string),
		}
		r.sites[loc1] = st
	}
	return st
}

func (r *Resolver) group(g GroupRef) *groupState {
	gs, ok := r.groups[g]
	if !ok {
		gs = &groupState{
			registeredSet: make(map[string]bool),
			used:          make(map[string]bool),
			claimed:       make(map[string]StreetKey),
			memo:          make(map[StreetKey]string),
		}
		r.groups[g] = gs
	}
	return gs
}

// Warnings returns the non-fatal findings of the resolution so far
func (r *Resolver) Warnings() []Warning {
	return r.warnings
}

// AssignLoc2 returns the canonical loc2 of a building within loc1
func (r *Resolver) AssignLoc2(loc1 string, building BuildingKey) (string, error) {
	st := r.site(loc1)
	if code, ok := st.memo[building]; ok {
		return code, nil
	}
	free := func(code string) bool {
		_, taken := st.claimed[code]
		return code != "" && !taken
	}

	for _, code := range st.registered {
		if free(code) {
			return r.claimLoc2(st, loc1, building, code, "registered"), nil
		}
	}
	for _, code := range r.loc2Mapper.Candidates(loc1, building) {
		if code = normalize.LocCode(code, Loc2Width); free(code) {
			return r.claimLoc2(st, loc1, building, code, "historical"), nil
		}
	}
	for _, code := range st.dominantOf[building] {
		if free(code) {
			return r.claimLoc2(st, loc1, building, code, "dominant"), nil
		}
	}

	code, ok := firstFreeCode(Loc2Width, free, st.registeredSet, st.used)
	if !ok {
		return "", fmt.Errorf("loc1 %s, bygningsnr %s: %w", loc1, building, ErrCodeSpaceExhausted)
	}
	r.warnings = append(r.warnings, Warning{
		Kind:    WarnAmbiguousAssignment,
		Loc1:    loc1,
		Loc2:    code,
		Message: fmt.Sprintf("no evidence for bygningsnr %s, allocated next free loc2 %s", building, code),
	})
	return r.claimLoc2(st, loc1, building, code, "allocated"), nil
}

func (r *Resolver) claimLoc2(st *siteState, loc1 string, building BuildingKey, code, reason string) string {
	st.claimed[code] = building
	st.memo[building] = code
	r.assignment.Loc2[BuildingRef{Loc1: loc1, Building: building}] = code
	debug.DebugOutput(r.debug, "loc1 %s bygningsnr %s -> loc2 %s (%s)", loc1, building, code, reason)
	return code
}

// AssignLoc3 returns the canonical loc3 of a street key within (loc1, loc2)
func (r *Resolver) AssignLoc3(loc1, loc2 string, street StreetKey) (string, error) {
	gs := r.group(GroupRef{Loc1: loc1, Loc2: loc2})
	if code, ok := gs.memo[street]; ok {
		return code, nil
	}
	free := func(code string) bool {
		_, taken := gs.claimed[code]
		return code != "" && !taken
	}
	slot := SlotRef{Loc1: loc1, Loc2: loc2, Street: street}

	if code, ok := r.dominantLoc3(slot); ok && free(code) {
		return r.claimLoc3(gs, slot, code, "dominant"), nil
	}
	if code, ok := r.streetMapper.Lookup(loc1, loc2, street); ok && free(code) {
		return r.claimLoc3(gs, slot, code, "recorded"), nil
	}
	for _, code := range gs.registered {
		if free(code) {
			return r.claimLoc3(gs, slot, code, "registered"), nil
		}
	}

	code, ok := firstFreeCode(Loc3Width, free, gs.registeredSet, gs.used)
	if !ok {
		return "", fmt.Errorf("loc1 %s loc2 %s, street %s: %w", loc1, loc2, street, ErrCodeSpaceExhausted)
	}
	r.warnings = append(r.warnings, Warning{
		Kind:    WarnAmbiguousAssignment,
		Loc1:    loc1,
		Loc2:    loc2,
		Loc3:    code,
		Message: fmt.Sprintf("no evidence for street %s, allocated next free loc3 %s", street, code),
	})
	return r.claimLoc3(gs, slot, code, "allocated"), nil
}

func (r *Resolver) claimLoc3(gs *groupState, slot SlotRef, code, reason string) string {
	gs.claimed[code] = slot.Street
	gs.memo[slot.Street] = code
	r.assignment.Loc3[slot] = code
	debug.DebugOutput(r.debug, "loc1 %s loc2 %s street %s -> loc3 %s (%s)", slot.Loc1, slot.Loc2, slot.Street, code, reason)
	return code
}

// dominantLoc3 returns the loc3 carried by at least half of the rows with
// this street key currently under this loc2, lowest code on ties.
func (r *Resolver) dominantLoc3(slot SlotRef) (string, bool) {
	counts := r.placements[slot]
	total, bestCount := 0, 0
	best := ""
	for code, n := range counts {
		total += n
		if n > bestCount || (n == bestCount && codeLess(code, best)) {
			best, bestCount = code, n
		}
	}
	if total == 0 || best == "" || bestCount*2 < total {
		return "", false
	}
	return best, true
}

// Resolve assigns every building and street key of the snapshot. Buildings
// are taken in order of first appearance among the sorted leaves. Within a
// loc2, street keys with a dominant placement go first, then those with a
// recorded placement, then the rest.
func (r *Resolver) Resolve() (*Assignment, error) {
	done := debug.DebugTiming(r.debug, "resolve")
	defer done()

	type siteOrder struct {
		buildings []BuildingKey
		seen      map[BuildingKey]bool
	}
	var loc1s []string
	orders := make(map[string]*siteOrder)
	for i, leaf := range r.leaves {
		o, ok := orders[leaf.Loc1]
		if !ok {
			o = &siteOrder{seen: make(map[BuildingKey]bool)}
			orders[leaf.Loc1] = o
			loc1s = append(loc1s, leaf.Loc1)
		}
		if !o.seen[r.keys[i]] {
			o.seen[r.keys[i]] = true
			o.buildings = append(o.buildings, r.keys[i])
		}
	}
	sort.Strings(loc1s)

	for _, loc1 := range loc1s {
		for _, b := range orders[loc1].buildings {
			if _, err := r.AssignLoc2(loc1, b); err != nil {
				return nil, err
			}
		}
	}

	var groups []GroupRef
	streets := make(map[GroupRef][]StreetKey)
	seen := make(map[SlotRef]bool)
	for i, leaf := range r.leaves {
		loc2 := r.assignment.Loc2[BuildingRef{Loc1: leaf.Loc1, Building: r.keys[i]}]
		slot := SlotRef{Loc1: leaf.Loc1, Loc2: loc2, Street: leaf.StreetKey()}
		if seen[slot] {
			continue
		}
		seen[slot] = true
		g := slot.Group()
		if _, ok := streets[g]; !ok {
			groups = append(groups, g)
		}
		streets[g] = append(streets[g], slot.Street)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Loc1 != groups[j].Loc1 {
			return groups[i].Loc1 < groups[j].Loc1
		}
		return codeLess(groups[i].Loc2, groups[j].Loc2)
	})

	for _, g := range groups {
		keys := streets[g]
		tier := func(sk StreetKey) int {
			if _, ok := r.dominantLoc3(SlotRef{Loc1: g.Loc1, Loc2: g.Loc2, Street: sk}); ok {
				return 0
			}
			if _, ok := r.streetMapper.Lookup(g.Loc1, g.Loc2, sk); ok {
				return 1
			}
			return 2
		}
		sort.SliceStable(keys, func(i, j int) bool { return tier(keys[i]) < tier(keys[j]) })

		for _, sk := range keys {
			if _, err := r.AssignLoc3(g.Loc1, g.Loc2, sk); err != nil {
				return nil, err
			}
		}
	}

	debug.DebugOutput(r.debug, "Resolved %d buildings and %d street slots", len(r.assignment.Loc2), len(r.assignment.Loc3))
	return r.assignment, nil
}

// firstFreeCode returns the first code 01-99 that is free and not reserved.
// When every code is reserved, the first merely free code is used.
func firstFreeCode(width int, free func(string) bool, reserved ...map[string]bool) (string, bool) {
	for n := 1; n <= MaxCode; n++ {
		code := normalize.FormatCode(n, width)
		if !free(code) {
			continue
		}
		taken := false
		for _, set := range reserved {
			if set[code] {
				taken = true
				break
			}
		}
		if !taken {
			return code, true
		}
	}
	for n := 1; n <= MaxCode; n++ {
		if code := normalize.FormatCode(n, width); free(code) {
			return code, true
		}
	}
	return "", false
}
