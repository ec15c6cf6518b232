package hierarchy

import (
	"context"
	"sort"
	"strconv"

	"github.com/porticoestate/location-hierarchy/internal/debug"
)

// Source is the read side of the relational store. An empty loc1 means all sites.
type Source interface {
	QueryLeafRows(ctx context.Context, loc1 string) ([]LeafRecord, error)
	QueryLevel1(ctx context.Context, loc1 string) ([]Level1Entry, error)
	QueryLevel2(ctx context.Context, loc1 string) ([]Level2Entry, error)
	QueryLevel3(ctx context.Context, loc1 string) ([]Level3Entry, error)
	LookupStreetName(ctx context.Context, streetID int64) (string, error)
	ListTablesWithLocationColumns(ctx context.Context) (map[string][]string, error)
	ListLoc1(ctx context.Context) ([]string, error)
}

// StreetNames caches street names for one run
type StreetNames struct {
	names map[int64]string
}

// NewStreetNames creates an empty cache
func NewStreetNames() *StreetNames {
	return &StreetNames{names: make(map[int64]string)}
}

// Set records the name of a street
func (s *StreetNames) Set(id int64, name string) {
	s.names[id] = name
}

// Has reports whether the street has been looked up
func (s *StreetNames) Has(id int64) bool {
	_, ok := s.names[id]
	return ok
}

// Name returns the cached street name, or "" when unknown
func (s *StreetNames) Name(id int64) string {
	return s.names[id]
}

// Snapshot is everything one run reads from the store
type Snapshot struct {
	Loc1    string
	Leaves  []LeafRecord
	Level1  []Level1Entry
	Level2  []Level2Entry
	Level3  []Level3Entry
	Streets *StreetNames
}

// Loader reads a snapshot from a Source
type Loader struct {
	src     Source
	streets *StreetNames
	debug   bool
}

// NewLoader creates a loader filling the given street name cache. A nil
// cache gets a fresh one.
func NewLoader(src Source, streets *StreetNames, localDebug bool) *Loader {
	if streets == nil {
		streets = NewStreetNames()
	}
	return &Loader{src: src, streets: streets, debug: localDebug}
}

// Load reads leaves, registries and street names for loc1 (all sites when empty)
func (l *Loader) Load(ctx context.Context, loc1 string) (*Snapshot, error) {
	done := debug.DebugTiming(l.debug, "load "+scopeLabel(loc1))
	defer done()

	leaves, err := l.src.QueryLeafRows(ctx, loc1)
	if err != nil {
		return nil, &DataAccessError{Op: "query leaf rows", Err: err}
	}
	level1, err := l.src.QueryLevel1(ctx, loc1)
	if err != nil {
		return nil, &DataAccessError{Op: "query level 1", Err: err}
	}
	level2, err := l.src.QueryLevel2(ctx, loc1)
	if err != nil {
		return nil, &DataAccessError{Op: "query level 2", Err: err}
	}
	level3, err := l.src.QueryLevel3(ctx, loc1)
	if err != nil {
		return nil, &DataAccessError{Op: "query level 3", Err: err}
	}

	for _, leaf := range leaves {
		if leaf.StreetID == nil || l.streets.Has(*leaf.StreetID) {
			continue
		}
		name, err := l.src.LookupStreetName(ctx, *leaf.StreetID)
		if err != nil {
			return nil, &DataAccessError{Op: "lookup street " + strconv.FormatInt(*leaf.StreetID, 10), Err: err}
		}
		l.streets.Set(*leaf.StreetID, name)
	}

	SortLeaves(leaves)
	debug.DebugOutput(l.debug, "Loaded %d leaves, %d level 1, %d level 2 and %d level 3 entries",
		len(leaves), len(level1), len(level2), len(level3))

	return &Snapshot{
		Loc1:    loc1,
		Leaves:  leaves,
		Level1:  level1,
		Level2:  level2,
		Level3:  level3,
		Streets: l.streets,
	}, nil
}

// LoadTables reads the tables carrying location columns
func (l *Loader) LoadTables(ctx context.Context) (map[string][]string, error) {
	tables, err := l.src.ListTablesWithLocationColumns(ctx)
	if err != nil {
		return nil, &DataAccessError{Op: "list location tables", Err: err}
	}
	return tables, nil
}

// SortLeaves orders leaves by (loc1, loc2, loc3, loc4) using normalized codes,
// with the remaining fields as tie-breakers so the order is total.
func SortLeaves(leaves []LeafRecord) {
	sort.SliceStable(leaves, func(i, j int) bool {
		return leafLess(leaves[i], leaves[j])
	})
}

func leafLess(a, b LeafRecord) bool {
	if a.Loc1 != b.Loc1 {
		return a.Loc1 < b.Loc1
	}
	if x, y := a.NormLoc2(), b.NormLoc2(); x != y {
		return codeLess(x, y)
	}
	if x, y := a.NormLoc3(), b.NormLoc3(); x != y {
		return codeLess(x, y)
	}
	if a.Loc4 != b.Loc4 {
		return codeLess(a.Loc4, b.Loc4)
	}
	if a.Loc2 != b.Loc2 {
		return a.Loc2 < b.Loc2
	}
	if a.Loc3 != b.Loc3 {
		return a.Loc3 < b.Loc3
	}
	if ab, bb := optInt(a.Bygningsnr), optInt(b.Bygningsnr); ab != bb {
		return ab < bb
	}
	if as, bs := optInt(a.StreetID), optInt(b.StreetID); as != bs {
		return as < bs
	}
	return a.StreetNumber < b.StreetNumber
}

// codeLess compares location codes numerically when both are numbers
func codeLess(a, b string) bool {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA == nil && errB == nil && x != y {
		return x < y
	}
	if errA == nil && errB != nil {
		return true
	}
	if errA != nil && errB == nil {
		return false
	}
	return a < b
}

func sortCodes(codes []string) {
	sort.Slice(codes, func(i, j int) bool { return codeLess(codes[i], codes[j]) })
}

func optInt(v *int64) int64 {
	if v == nil {
		return -1 << 63
	}
	return *v
}

func scopeLabel(loc1 string) string {
	if loc1 == "" {
		return "all sites"
	}
	return "loc1 " + loc1
}
