package normalize

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NaturalSorter orders strings numeric-aware ("2" < "10" < "10A") using
// Norwegian collation rules. A sorter is not safe for concurrent use.
type NaturalSorter struct {
	col *collate.Collator
}

// NewNaturalSorter creates a numeric-aware sorter
func NewNaturalSorter() *NaturalSorter {
	return &NaturalSorter{col: collate.New(language.Norwegian, collate.Numeric, collate.IgnoreCase)}
}

// Compare returns -1, 0 or 1. Strings the collator considers equal fall back
// to byte order so the result is a total order.
func (ns *NaturalSorter) Compare(a, b string) int {
	if c := ns.col.CompareString(a, b); c != 0 {
		return c
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Less reports whether a sorts before b
func (ns *NaturalSorter) Less(a, b string) bool {
	return ns.Compare(a, b) < 0
}

// Strings sorts values in place
func (ns *NaturalSorter) Strings(values []string) {
	sort.SliceStable(values, func(i, j int) bool { return ns.Less(values[i], values[j]) })
}
