package hierarchy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, src *memSource, mapper Loc2Candidates) (*Assignment, *Resolver, []BuildingKey, *Snapshot) {
	t.Helper()
	snap := snapshotOf(src, "")
	keys := AssignBuildingKeys(snap.Leaves, false)
	r := NewResolver(snap, keys, mapper, false)
	a, err := r.Resolve()
	require.NoError(t, err)
	return a, r, keys, snap
}

func loc2Warnings(all []Warning) []Warning {
	var out []Warning
	for _, w := range all {
		if w.Loc3 == "" {
			out = append(out, w)
		}
	}
	return out
}

func TestResolveKeepsDominantPlacement(t *testing.T) {
	src := &memSource{leaves: []LeafRecord{
		leaf("1", "01", "01", "001", 10, 5, "1"),
		leaf("1", "01", "01", "002", 10, 5, "2"),
		leaf("1", "01", "01", "003", 10, 5, "2"),
		leaf("1", "01", "02", "004", 10, 5, "1"),
		leaf("1", "01", "02", "005", 10, 5, "1"),
		leaf("1", "01", "02", "006", 10, 5, "1"),
	}}
	a, _, keys, snap := resolve(t, src, nil)

	assert.Equal(t, "02", a.Loc3[SlotRef{Loc1: "1", Loc2: "01", Street: StreetKey{5, "1"}}])
	assert.Equal(t, "01", a.Loc3[SlotRef{Loc1: "1", Loc2: "01", Street: StreetKey{5, "2"}}])

	f := NewDetector(NewNameSynthesizer(snap.Streets, 0)).Detect(snap, keys, a)
	require.Len(t, f.Corrections, 1, "only the minority row moves")
	assert.Equal(t, "1-01-01-001", f.Corrections[0].OldLocationCode)
	assert.Equal(t, "1-01-02-001", f.Corrections[0].NewLocationCode)
	assert.Equal(t, ChangeIncorrectEntrance, f.Corrections[0].ChangeType)
}

func TestResolveSplitsMergedAddresses(t *testing.T) {
	src := &memSource{
		level3: []Level3Entry{
			{Loc1: "1", Loc2: "01", Loc3: "01"},
			{Loc1: "1", Loc2: "01", Loc3: "02"},
		},
		leaves: []LeafRecord{
			leaf("1", "01", "01", "001", 10, 5, "1"),
			leaf("1", "01", "01", "002", 10, 5, "2"),
			leaf("1", "01", "01", "003", 10, 5, "3"),
		},
	}
	a, r, _, _ := resolve(t, src, nil)

	seen := make(map[string]StreetKey)
	for slot, loc3 := range a.Loc3 {
		if prev, dup := seen[loc3]; dup {
			t.Fatalf("loc3 %s shared by %s and %s", loc3, prev, slot.Street)
		}
		seen[loc3] = slot.Street
	}
	assert.Equal(t, "01", a.Loc3[SlotRef{"1", "01", StreetKey{5, "1"}}])
	assert.Equal(t, "02", a.Loc3[SlotRef{"1", "01", StreetKey{5, "2"}}])
	assert.Equal(t, "03", a.Loc3[SlotRef{"1", "01", StreetKey{5, "3"}}])

	require.Len(t, r.Warnings(), 1)
	assert.Equal(t, WarnAmbiguousAssignment, r.Warnings()[0].Kind)
	assert.Equal(t, "03", r.Warnings()[0].Loc3)
}

func TestResolveOneLoc2PerBuilding(t *testing.T) {
	src := &memSource{leaves: []LeafRecord{
		leaf("1", "03", "01", "001", 10, 5, "1"),
		leaf("1", "01", "01", "001", 20, 6, "1"),
		leaf("1", "02", "01", "001", 10, 5, "1"),
		leaf("1", "02", "02", "002", 20, 6, "1"),
		leaf("2", "01", "01", "001", 10, 5, "1"),
	}}
	a, _, _, _ := resolve(t, src, nil)

	byLoc2 := make(map[GroupRef]BuildingKey)
	for ref, loc2 := range a.Loc2 {
		g := GroupRef{Loc1: ref.Loc1, Loc2: loc2}
		if prev, dup := byLoc2[g]; dup {
			t.Fatalf("%v shared by %s and %s", g, prev, ref.Building)
		}
		byLoc2[g] = ref.Building
	}
	assert.Len(t, a.Loc2, 3)
	assert.Equal(t, "01", a.Loc2[BuildingRef{"1", Known(20)}])
	assert.Equal(t, "02", a.Loc2[BuildingRef{"1", Known(10)}])
	assert.Equal(t, "01", a.Loc2[BuildingRef{"2", Known(10)}], "sites are resolved independently")
}

func TestResolvePrefersRegisteredLoc2(t *testing.T) {
	src := &memSource{
		level2: []Level2Entry{{Loc1: "1", Loc2: "4"}, {Loc1: "1", Loc2: "07"}},
		leaves: []LeafRecord{
			leaf("1", "09", "01", "001", 10, 5, "1"),
			leaf("1", "10", "01", "001", 20, 5, "2"),
			leaf("1", "11", "01", "001", 30, 5, "3"),
		},
	}
	a, r, _, _ := resolve(t, src, DisabledLoc2Mapper{})

	assert.Equal(t, "04", a.Loc2[BuildingRef{"1", Known(10)}])
	assert.Equal(t, "07", a.Loc2[BuildingRef{"1", Known(20)}])
	assert.Equal(t, "11", a.Loc2[BuildingRef{"1", Known(30)}], "dominant building keeps its loc2")
	assert.Empty(t, loc2Warnings(r.Warnings()))
}

func TestResolveDominantBuildingTieBreak(t *testing.T) {
	// 10 and 20 share loc2 01 with one row each; the lower number wins it
	src := &memSource{leaves: []LeafRecord{
		leaf("1", "01", "01", "001", 20, 5, "1"),
		leaf("1", "01", "02", "001", 10, 5, "2"),
	}}
	a, r, _, _ := resolve(t, src, DisabledLoc2Mapper{})

	assert.Equal(t, "01", a.Loc2[BuildingRef{"1", Known(10)}])
	assert.Equal(t, "02", a.Loc2[BuildingRef{"1", Known(20)}])
	warnings := loc2Warnings(r.Warnings())
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnAmbiguousAssignment, warnings[0].Kind)
	assert.Equal(t, "02", warnings[0].Loc2)
}

func TestResolveCodeSpaceExhausted(t *testing.T) {
	src := &memSource{}
	for i := 1; i <= 100; i++ {
		src.leaves = append(src.leaves, leaf("1", "01", "01", fmt.Sprintf("%03d", i), int64(i), 5, fmt.Sprint(i)))
	}
	snap := snapshotOf(src, "")
	r := NewResolver(snap, AssignBuildingKeys(snap.Leaves, false), nil, false)

	_, err := r.Resolve()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCodeSpaceExhausted))
	assert.Len(t, r.Warnings(), 98)
}

func TestAssignLoc2Memoized(t *testing.T) {
	src := &memSource{leaves: []LeafRecord{leaf("1", "05", "01", "001", 10, 5, "1")}}
	snap := snapshotOf(src, "")
	r := NewResolver(snap, AssignBuildingKeys(snap.Leaves, false), nil, false)

	first, err := r.AssignLoc2("1", Known(10))
	require.NoError(t, err)
	second, err := r.AssignLoc2("1", Known(10))
	require.NoError(t, err)
	assert.Equal(t, "05", first)
	assert.Equal(t, first, second)

	other, err := r.AssignLoc2("1", Known(11))
	require.NoError(t, err)
	assert.Equal(t, "01", other)
}

func TestAssignBuildingKeys(t *testing.T) {
	leaves := []LeafRecord{
		leaf("1", "01", "01", "001", 10, 5, "1"),
		leaf("1", "01", "01", "002", 0, 5, "1"),
		leaf("1", "01", "02", "001", 0, 5, "2"),
		leaf("1", "01", "02", "002", 0, 5, " 02"),
		leaf("2", "01", "01", "001", 0, 5, "1"),
		leaf("1", "01", "03", "001", 12, 6, "1"),
		leaf("1", "01", "03", "002", 11, 6, "1"),
		leaf("1", "01", "03", "003", 0, 6, "1"),
	}
	tests := []struct {
		name    string
		inherit bool
		want    []BuildingKey
	}{
		{"synthetic per address", false, []BuildingKey{
			Known(10),
			Synthetic(StreetKey{5, "1"}),
			Synthetic(StreetKey{5, "2"}),
			Synthetic(StreetKey{5, "2"}),
			Synthetic(StreetKey{5, "1"}),
			Known(12),
			Known(11),
			Synthetic(StreetKey{6, "1"}),
		}},
		{"inherit from address", true, []BuildingKey{
			Known(10),
			Known(10),
			Synthetic(StreetKey{5, "2"}),
			Synthetic(StreetKey{5, "2"}),
			Synthetic(StreetKey{5, "1"}), // other sites do not lend numbers
			Known(12),
			Known(11),
			Known(11), // tie goes to the lowest number
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := AssignBuildingKeys(leaves, tt.inherit)
			require.Len(t, keys, len(tt.want))
			for i := range keys {
				if keys[i] != tt.want[i] {
					t.Errorf("row %d: got %s, want %s", i, keys[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildingKeyOrder(t *testing.T) {
	ordered := []BuildingKey{
		Known(-3),
		Known(1),
		Known(20),
		Synthetic(StreetKey{1, "9"}),
		Synthetic(StreetKey{2, "1"}),
		Synthetic(StreetKey{2, "1A"}),
	}
	for i := range ordered {
		for j := range ordered {
			if got := ordered[i].Less(ordered[j]); got != (i < j) {
				t.Errorf("%s.Less(%s) = %v", ordered[i], ordered[j], got)
			}
		}
	}
	_, ok := Synthetic(StreetKey{1, "2"}).Bygningsnr()
	assert.False(t, ok)
	assert.Equal(t, "synthetic:1/2", Synthetic(StreetKey{1, "2"}).String())
}
