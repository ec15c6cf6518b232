package hierarchy

import (
	"fmt"
	"sort"
)

// checkIntegrity compares the stored location_code of every level 2, 3 and
// 4 row with its parent's code plus its own segment, and reports rows whose
// parent row does not exist. Parents are matched on the stored segments as
// they are. Rows or parents without a stored code skip the code comparison.
func checkIntegrity(snap *Snapshot, f *Findings) {
	level1 := make(map[string]Level1Entry, len(snap.Level1))
	for _, e := range snap.Level1 {
		level1[e.Loc1] = e
	}

	level2 := append([]Level2Entry(nil), snap.Level2...)
	sort.SliceStable(level2, func(i, j int) bool {
		if level2[i].Loc1 != level2[j].Loc1 {
			return level2[i].Loc1 < level2[j].Loc1
		}
		return level2[i].Loc2 < level2[j].Loc2
	})
	parents2 := make(map[GroupRef]Level2Entry, len(level2))
	for _, e := range level2 {
		g := GroupRef{Loc1: e.Loc1, Loc2: e.Loc2}
		if _, ok := parents2[g]; !ok {
			parents2[g] = e
		}

		parent, ok := level1[e.Loc1]
		if !ok {
			f.orphan(Warning{Loc1: e.Loc1, Loc2: e.Loc2}, 2, e.LocationCode, e.Loc1)
			continue
		}
		f.compareCode(Warning{Loc1: e.Loc1, Loc2: e.Loc2}, 2, e.LocationCode, parent.LocationCode, e.Loc2)
	}

	level3 := append([]Level3Entry(nil), snap.Level3...)
	sort.SliceStable(level3, func(i, j int) bool {
		x, y := level3[i], level3[j]
		if x.Loc1 != y.Loc1 {
			return x.Loc1 < y.Loc1
		}
		if x.Loc2 != y.Loc2 {
			return x.Loc2 < y.Loc2
		}
		return x.Loc3 < y.Loc3
	})
	parents3 := make(map[Loc3Ref]Level3Entry, len(level3))
	for _, e := range level3 {
		ref := Loc3Ref{Loc1: e.Loc1, Loc2: e.Loc2, Loc3: e.Loc3}
		if _, ok := parents3[ref]; !ok {
			parents3[ref] = e
		}

		w := Warning{Loc1: e.Loc1, Loc2: e.Loc2, Loc3: e.Loc3}
		parent, ok := parents2[GroupRef{Loc1: e.Loc1, Loc2: e.Loc2}]
		if !ok {
			f.orphan(w, 3, e.LocationCode, e.Loc1+"-"+e.Loc2)
			continue
		}
		f.compareCode(w, 3, e.LocationCode, parent.LocationCode, e.Loc3)
	}

	for _, leaf := range snap.Leaves {
		w := Warning{Loc1: leaf.Loc1, Loc2: leaf.Loc2, Loc3: leaf.Loc3, Loc4: leaf.Loc4}
		parent, ok := parents3[Loc3Ref{Loc1: leaf.Loc1, Loc2: leaf.Loc2, Loc3: leaf.Loc3}]
		if !ok {
			f.orphan(w, 4, leaf.StoredCode(), leaf.Loc1+"-"+leaf.Loc2+"-"+leaf.Loc3)
			continue
		}
		f.compareCode(w, 4, leaf.LocationCode, parent.LocationCode, leaf.Loc4)
	}
}

func (f *Findings) orphan(w Warning, level int, code, parent string) {
	if code == "" {
		code = "(no code)"
	}
	w.Kind = WarnOrphanedEntry
	w.Message = fmt.Sprintf("level %d entry %s has no parent %s", level, code, parent)
	f.Warnings = append(f.Warnings, w)
	f.OrphanedEntries++
}

func (f *Findings) compareCode(w Warning, level int, code, parentCode, segment string) {
	if code == "" || parentCode == "" {
		return
	}
	if expected := parentCode + "-" + segment; code != expected {
		w.Kind = WarnInvalidLocationCode
		w.Message = fmt.Sprintf("level %d location code %s should be %s", level, code, expected)
		f.Warnings = append(f.Warnings, w)
		f.InvalidLocationCodes++
	}
}
