package hierarchy

import (
	"fmt"
	"strconv"

	"github.com/porticoestate/location-hierarchy/internal/normalize"
)

// Code widths for the levels of a location code
const (
	Loc2Width = 2
	Loc3Width = 2
	MaxCode   = 99
)

// LeafRecord is one level-4 row as stored. Loc2/Loc3/Loc4 hold the raw values
// so corrective statements can address the row exactly.
type LeafRecord struct {
	LocationCode string `json:"location_code" yaml:"location_code"`
	Loc1         string `json:"loc1" yaml:"loc1"`
	Loc2         string `json:"loc2" yaml:"loc2"`
	Loc3         string `json:"loc3" yaml:"loc3"`
	Loc4         string `json:"loc4" yaml:"loc4"`
	Bygningsnr   *int64 `json:"bygningsnr,omitempty" yaml:"bygningsnr,omitempty"`
	StreetID     *int64 `json:"street_id,omitempty" yaml:"street_id,omitempty"`
	StreetNumber string `json:"street_number" yaml:"street_number"`
}

// NormLoc2 returns the normalized current loc2
func (r LeafRecord) NormLoc2() string { return normalize.LocCode(r.Loc2, Loc2Width) }

// NormLoc3 returns the normalized current loc3
func (r LeafRecord) NormLoc3() string { return normalize.LocCode(r.Loc3, Loc3Width) }

// Code joins the stored segments of the row
func (r LeafRecord) Code() string {
	return fmt.Sprintf("%s-%s-%s-%s", r.Loc1, r.Loc2, r.Loc3, r.Loc4)
}

// StoredCode is the location_code other tables refer to the row by. Rows
// loaded without one fall back to Code.
func (r LeafRecord) StoredCode() string {
	if r.LocationCode != "" {
		return r.LocationCode
	}
	return r.Code()
}

// StreetKey identifies the addressable unit of the row
func (r LeafRecord) StreetKey() StreetKey {
	var id int64
	if r.StreetID != nil {
		id = *r.StreetID
	}
	return StreetKey{StreetID: id, Number: normalize.StreetNumber(r.StreetNumber)}
}

// Level1Entry is a registered property
type Level1Entry struct {
	LocationCode string `json:"location_code" yaml:"location_code"`
	Loc1         string `json:"loc1" yaml:"loc1"`
	Name         string `json:"loc1_name" yaml:"loc1_name"`
}

// Level2Entry is a registered building grouping
type Level2Entry struct {
	LocationCode string `json:"location_code,omitempty" yaml:"location_code,omitempty"`
	Loc1         string `json:"loc1" yaml:"loc1"`
	Loc2         string `json:"loc2" yaml:"loc2"`
	Name         string `json:"loc2_name" yaml:"loc2_name"`
}

// Level3Entry is a registered street-address grouping within a building
type Level3Entry struct {
	LocationCode string `json:"location_code,omitempty" yaml:"location_code,omitempty"`
	Loc1         string `json:"loc1" yaml:"loc1"`
	Loc2         string `json:"loc2" yaml:"loc2"`
	Loc3         string `json:"loc3" yaml:"loc3"`
	Name         string `json:"loc3_name" yaml:"loc3_name"`
}

// StreetKey is the (street, normalized number) pair deciding loc3 placement.
// The zero StreetID means the row has no street.
type StreetKey struct {
	StreetID int64
	Number   string
}

func (k StreetKey) String() string {
	return strconv.FormatInt(k.StreetID, 10) + "/" + k.Number
}

// BuildingRef scopes a building to its site
type BuildingRef struct {
	Loc1     string
	Building BuildingKey
}

// GroupRef addresses a level-2 grouping
type GroupRef struct {
	Loc1 string
	Loc2 string
}

// SlotRef addresses the loc3 slot of a street key within a building grouping
type SlotRef struct {
	Loc1   string
	Loc2   string
	Street StreetKey
}

// Loc3Ref addresses a level-3 grouping
type Loc3Ref struct {
	Loc1 string
	Loc2 string
	Loc3 string
}

// Group returns the level-2 part of the slot
func (s SlotRef) Group() GroupRef { return GroupRef{Loc1: s.Loc1, Loc2: s.Loc2} }

// Assignment is the canonical hierarchy computed from leaf evidence
type Assignment struct {
	Loc2 map[BuildingRef]string
	Loc3 map[SlotRef]string
}

// NewAssignment creates an empty assignment
func NewAssignment() *Assignment {
	return &Assignment{
		Loc2: make(map[BuildingRef]string),
		Loc3: make(map[SlotRef]string),
	}
}

// Merge copies other into a
func (a *Assignment) Merge(other *Assignment) {
	for k, v := range other.Loc2 {
		a.Loc2[k] = v
	}
	for k, v := range other.Loc3 {
		a.Loc3[k] = v
	}
}
