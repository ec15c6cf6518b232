package hierarchy

import (
	"fmt"
	"strings"

	"github.com/porticoestate/location-hierarchy/internal/normalize"
)

// DefaultMaxLoc2NameLength is the longest loc2 name written, in runes
const DefaultMaxLoc2NameLength = 256

// NameSynthesizer derives display names for level-2 and level-3 groupings
type NameSynthesizer struct {
	streets *StreetNames
	sorter  *normalize.NaturalSorter
	maxLen  int
}

// NewNameSynthesizer creates a synthesizer reading street names from streets.
// maxLen <= 1 selects DefaultMaxLoc2NameLength.
func NewNameSynthesizer(streets *StreetNames, maxLen int) *NameSynthesizer {
	if maxLen <= 1 {
		maxLen = DefaultMaxLoc2NameLength
	}
	if streets == nil {
		streets = NewStreetNames()
	}
	return &NameSynthesizer{
		streets: streets,
		sorter:  normalize.NewNaturalSorter(),
		maxLen:  maxLen,
	}
}

// Loc3Name is "<street name> <number>"
func (n *NameSynthesizer) Loc3Name(street StreetKey) string {
	return normalize.AddressLabel(n.streets.Name(street.StreetID), street.Number)
}

// Loc2Name summarizes every street of a building grouping, e.g.
// "Kongens gate 2/10, Storgata 1". Streets and numbers sort numeric-aware.
func (n *NameSynthesizer) Loc2Name(streets []StreetKey) string {
	numbers := make(map[string][]string)
	seen := make(map[[2]string]bool)
	var names []string
	for _, sk := range streets {
		name := normalize.StreetName(n.streets.Name(sk.StreetID))
		if _, ok := numbers[name]; !ok {
			names = append(names, name)
			numbers[name] = []string{}
		}
		if sk.Number == "" || seen[[2]string{name, sk.Number}] {
			continue
		}
		seen[[2]string{name, sk.Number}] = true
		numbers[name] = append(numbers[name], sk.Number)
	}

	n.sorter.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		nums := numbers[name]
		n.sorter.Strings(nums)
		part := strings.TrimSpace(name + " " + strings.Join(nums, "/"))
		if part != "" {
			parts = append(parts, part)
		}
	}
	return normalize.Truncate(strings.Join(parts, ", "), n.maxLen)
}

// NewLoc2Name is the name a freshly inserted loc2 gets. Known buildings get
// a placeholder carrying the building number; synthetic ones are named
// after their streets straight away.
func (n *NameSynthesizer) NewLoc2Name(building BuildingKey, streets []StreetKey) string {
	if id, ok := building.Bygningsnr(); ok {
		return fmt.Sprintf("Bygningsnr:%d", id)
	}
	return n.Loc2Name(streets)
}
