package hierarchy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Batch categories, in execution order
const (
	CategoryMissingLoc2       = "missing_loc2"
	CategoryMissingLoc3       = "missing_loc3"
	CategoryLoc3NameUpdates   = "loc3_name_updates"
	CategoryLoc2NameUpdates   = "loc2_name_updates"
	CategoryLocation4Updates  = "location4_updates"
	CategoryCorrections       = "corrections"
	CategoryUpdateFromMapping = "update_location_from_mapping"
)

// DefaultAuditTable receives one row per moved leaf
const DefaultAuditTable = "location_mapping"

const runTagLength = 16

// Categories lists every batch category in execution order
var Categories = []string{
	CategoryMissingLoc2,
	CategoryMissingLoc3,
	CategoryLoc3NameUpdates,
	CategoryLoc2NameUpdates,
	CategoryLocation4Updates,
	CategoryCorrections,
	CategoryUpdateFromMapping,
}

// Batches holds the emitted statements per category
type Batches map[string][]string

// Total counts all statements
func (b Batches) Total() int {
	n := 0
	for _, stmts := range b {
		n += len(stmts)
	}
	return n
}

var reHierarchyTable = regexp.MustCompile(`^fm_location\d+$`)

// Emitter renders findings as SQL. The text only depends on its input, so
// the same findings always produce the same script.
type Emitter struct {
	auditTable string
	exclude    map[string]bool
}

// NewEmitter creates an emitter writing audit rows to auditTable (default
// location_mapping) and skipping the excluded tables during propagation.
func NewEmitter(auditTable string, exclude []string) *Emitter {
	if auditTable == "" {
		auditTable = DefaultAuditTable
	}
	e := &Emitter{auditTable: auditTable, exclude: make(map[string]bool)}
	for _, t := range exclude {
		e.exclude[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return e
}

// RunTag fingerprints a correction set
func RunTag(corrections []Correction) string {
	h := sha256.New()
	for _, c := range corrections {
		fmt.Fprintf(h, "%s\t%s\t%s\n", c.OldLocationCode, c.NewLocationCode, c.ChangeType)
	}
	return hex.EncodeToString(h.Sum(nil))[:runTagLength]
}

// Emit renders every category. tables maps table names to their columns and
// decides where renames are propagated.
func (e *Emitter) Emit(f *Findings, tables map[string][]string) Batches {
	b := make(Batches, len(Categories))
	for _, c := range Categories {
		b[c] = []string{}
	}

	for _, entry := range f.MissingLoc2 {
		b[CategoryMissingLoc2] = append(b[CategoryMissingLoc2], fmt.Sprintf(
			"INSERT INTO fm_location2 (location_code, loc1, loc2, loc2_name) VALUES (%s, %s, %s, %s) ON CONFLICT (loc1, loc2) DO NOTHING;",
			literal(entry.Loc1+"-"+entry.Loc2), literal(entry.Loc1), literal(entry.Loc2), literal(entry.Name)))
	}
	for _, entry := range f.MissingLoc3 {
		b[CategoryMissingLoc3] = append(b[CategoryMissingLoc3], fmt.Sprintf(
			"INSERT INTO fm_location3 (location_code, loc1, loc2, loc3, loc3_name) VALUES (%s, %s, %s, %s, %s) ON CONFLICT (loc1, loc2, loc3) DO NOTHING;",
			literal(entry.Loc1+"-"+entry.Loc2+"-"+entry.Loc3), literal(entry.Loc1), literal(entry.Loc2), literal(entry.Loc3), literal(entry.Name)))
	}
	for _, entry := range f.Loc3Names {
		name := literal(entry.Name)
		b[CategoryLoc3NameUpdates] = append(b[CategoryLoc3NameUpdates], fmt.Sprintf(
			"UPDATE fm_location3 SET loc3_name = %s WHERE loc1 = %s AND loc2 = %s AND loc3 = %s AND loc3_name IS DISTINCT FROM %s;",
			name, literal(entry.Loc1), literal(entry.Loc2), literal(entry.Loc3), name))
	}
	for _, entry := range f.Loc2Names {
		name := literal(entry.Name)
		b[CategoryLoc2NameUpdates] = append(b[CategoryLoc2NameUpdates], fmt.Sprintf(
			"UPDATE fm_location2 SET loc2_name = %s WHERE loc1 = %s AND loc2 = %s AND loc2_name IS DISTINCT FROM %s;",
			name, literal(entry.Loc1), literal(entry.Loc2), name))
	}
	if len(f.Corrections) == 0 {
		return b
	}
	b[CategoryLocation4Updates] = append(b[CategoryLocation4Updates], moveStatement(f.Corrections))

	tag := RunTag(f.Corrections)
	audit := pq.QuoteIdentifier(e.auditTable)
	b[CategoryCorrections] = append(b[CategoryCorrections],
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    run_tag VARCHAR(16) NOT NULL,
    old_location_code VARCHAR(50) NOT NULL,
    new_location_code VARCHAR(50) NOT NULL,
    loc1 VARCHAR(10),
    old_loc2 VARCHAR(10),
    new_loc2 VARCHAR(10),
    old_loc3 VARCHAR(10),
    new_loc3 VARCHAR(10),
    loc4 VARCHAR(10),
    bygningsnr INTEGER,
    street_id INTEGER,
    street_number VARCHAR(10),
    change_type VARCHAR(20),
    update_timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`, audit),
		fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (run_tag, old_location_code);",
			pq.QuoteIdentifier(e.auditTable+"_run_old_idx"), audit),
	)
	for _, c := range f.Corrections {
		b[CategoryCorrections] = append(b[CategoryCorrections], fmt.Sprintf(
			"INSERT INTO %s (run_tag, old_location_code, new_location_code, loc1, old_loc2, new_loc2, old_loc3, new_loc3, loc4, bygningsnr, street_id, street_number, change_type) "+
				"VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s) ON CONFLICT (run_tag, old_location_code) DO NOTHING;",
			audit, literal(tag), literal(c.OldLocationCode), literal(c.NewLocationCode), literal(c.Loc1),
			literal(c.OldLoc2), literal(c.NewLoc2), literal(c.OldLoc3), literal(c.NewLoc3), literal(c.Loc4),
			nullableInt(c.Bygningsnr), nullableInt(c.StreetID), literal(c.StreetNumber), literal(c.ChangeType)))
	}

	for _, table := range e.propagationTargets(tables) {
		columns := columnSet(tables[table])
		set := []string{"location_code = lm.new_location_code"}
		if columns["loc2"] {
			set = append(set, "loc2 = lm.new_loc2")
		}
		if columns["loc3"] {
			set = append(set, "loc3 = lm.new_loc3")
		}
		b[CategoryUpdateFromMapping] = append(b[CategoryUpdateFromMapping], fmt.Sprintf(
			"UPDATE %s AS t SET %s FROM %s AS lm WHERE t.location_code = lm.old_location_code AND lm.run_tag = %s;",
			pq.QuoteIdentifier(table), strings.Join(set, ", "), audit, literal(tag)))
	}
	return b
}

// moveStatement renders every move as one UPDATE joined against an inline
// table of (loc1, old loc2, old loc3, loc4, new loc2, new loc3, new code).
// All rows are matched against their stored identity before any of them
// moves, so a row moved into a slot another row is leaving is not moved
// again. VALUES columns are named column1..columnN in both PostgreSQL and
// SQLite.
func moveStatement(corrections []Correction) string {
	rows := make([]string, len(corrections))
	for i, c := range corrections {
		rows[i] = fmt.Sprintf("(%s, %s, %s, %s, %s, %s, %s)",
			literal(c.Loc1), literal(c.OldLoc2), literal(c.OldLoc3), literal(c.Loc4),
			literal(c.NewLoc2), literal(c.NewLoc3), literal(c.NewLocationCode))
	}
	return "UPDATE fm_location4 AS l4 SET location_code = mv.column7, loc2 = mv.column5, loc3 = mv.column6 FROM (VALUES\n    " +
		strings.Join(rows, ",\n    ") +
		"\n) AS mv WHERE l4.loc1 = mv.column1 AND COALESCE(l4.loc2, '') = mv.column2 AND COALESCE(l4.loc3, '') = mv.column3 AND COALESCE(l4.loc4, '') = mv.column4;"
}

// propagationTargets returns the sorted tables carrying location_code that
// are not part of the hierarchy itself.
func (e *Emitter) propagationTargets(tables map[string][]string) []string {
	var out []string
	for table, columns := range tables {
		name := strings.ToLower(table)
		if reHierarchyTable.MatchString(name) || name == strings.ToLower(e.auditTable) || e.exclude[name] {
			continue
		}
		if columnSet(columns)["location_code"] {
			out = append(out, table)
		}
	}
	sort.Strings(out)
	return out
}

func columnSet(columns []string) map[string]bool {
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[strings.ToLower(c)] = true
	}
	return set
}

// literal renders a SQL string literal understood by PostgreSQL and SQLite
func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func nullableInt(v *int64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatInt(*v, 10)
}
