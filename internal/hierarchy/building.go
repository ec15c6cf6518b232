package hierarchy

import (
	"sort"
	"strconv"
)

// BuildingKey identifies the building a leaf belongs to. It is either a
// known building number or a synthetic key standing in for rows without
// one, grouped by street address. The zero value is not a valid key.
type BuildingKey struct {
	id        int64
	street    StreetKey
	synthetic bool
}

// Known returns the key of a registered building number
func Known(id int64) BuildingKey {
	return BuildingKey{id: id}
}

// Synthetic returns the key standing in for rows at street without a building number
func Synthetic(street StreetKey) BuildingKey {
	return BuildingKey{street: street, synthetic: true}
}

// IsSynthetic reports whether the key was derived from a street address
func (b BuildingKey) IsSynthetic() bool { return b.synthetic }

// Bygningsnr returns the building number of a known key
func (b BuildingKey) Bygningsnr() (int64, bool) {
	if b.synthetic {
		return 0, false
	}
	return b.id, true
}

// Street returns the address a synthetic key was grouped by
func (b BuildingKey) Street() (StreetKey, bool) {
	if !b.synthetic {
		return StreetKey{}, false
	}
	return b.street, true
}

func (b BuildingKey) String() string {
	if b.synthetic {
		return "synthetic:" + b.street.String()
	}
	return strconv.FormatInt(b.id, 10)
}

// Less orders known keys by number, ahead of synthetic keys ordered by address
func (b BuildingKey) Less(o BuildingKey) bool {
	if b.synthetic != o.synthetic {
		return !b.synthetic
	}
	if !b.synthetic {
		return b.id < o.id
	}
	if b.street.StreetID != o.street.StreetID {
		return b.street.StreetID < o.street.StreetID
	}
	return b.street.Number < o.street.Number
}

// AssignBuildingKeys returns the building key of every leaf, index aligned.
// Rows with a building number keep it. Rows without one share a synthetic
// key per (loc1, street address). With inherit set they instead take the
// building number most rows at the same (loc1, street address) carry,
// lowest number on ties, and only fall back to the synthetic key when no
// row at that address has one.
func AssignBuildingKeys(leaves []LeafRecord, inherit bool) []BuildingKey {
	type addr struct {
		loc1   string
		street StreetKey
	}

	inherited := make(map[addr]int64)
	if inherit {
		votes := make(map[addr]map[int64]int)
		for _, leaf := range leaves {
			if leaf.Bygningsnr == nil {
				continue
			}
			a := addr{leaf.Loc1, leaf.StreetKey()}
			if votes[a] == nil {
				votes[a] = make(map[int64]int)
			}
			votes[a][*leaf.Bygningsnr]++
		}
		for a, counts := range votes {
			ids := make([]int64, 0, len(counts))
			for id := range counts {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				if counts[ids[i]] != counts[ids[j]] {
					return counts[ids[i]] > counts[ids[j]]
				}
				return ids[i] < ids[j]
			})
			inherited[a] = ids[0]
		}
	}

	keys := make([]BuildingKey, len(leaves))
	for i, leaf := range leaves {
		if leaf.Bygningsnr != nil {
			keys[i] = Known(*leaf.Bygningsnr)
			continue
		}
		a := addr{leaf.Loc1, leaf.StreetKey()}
		if id, ok := inherited[a]; ok {
			keys[i] = Known(id)
			continue
		}
		keys[i] = Synthetic(a.street)
	}
	return keys
}
