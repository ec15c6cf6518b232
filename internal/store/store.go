package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/porticoestate/location-hierarchy/internal/db"
	"github.com/porticoestate/location-hierarchy/internal/debug"
	"github.com/porticoestate/location-hierarchy/internal/hierarchy"
)

// locationColumns are the columns that make a table part of the location
// hierarchy's reach
var locationColumns = []string{"location_code", "loc1", "loc2", "loc3", "loc4"}

// Store reads the location hierarchy from PostgreSQL or SQLite and runs
// corrective statements in one transaction.
type Store struct {
	db     *sql.DB
	driver string
	debug  bool
}

// New creates a store over an open connection
func New(conn *db.Connection, localDebug bool) *Store {
	return &Store{db: conn.DB, driver: conn.Driver, debug: localDebug}
}

// placeholder returns the n-th bind parameter of the dialect
func (s *Store) placeholder(n int) string {
	if s.driver == "sqlite" {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// scoped appends a loc1 filter when loc1 is set
func (s *Store) scoped(query, loc1, orderBy string) (string, []interface{}) {
	var args []interface{}
	if loc1 != "" {
		query += " WHERE loc1 = " + s.placeholder(1)
		args = append(args, loc1)
	}
	return query + " ORDER BY " + orderBy, args
}

// QueryLeafRows loads every level-4 row
func (s *Store) QueryLeafRows(ctx context.Context, loc1 string) ([]hierarchy.LeafRecord, error) {
	query, args := s.scoped(`
		SELECT COALESCE(location_code, ''), loc1, COALESCE(loc2, ''), COALESCE(loc3, ''), COALESCE(loc4, ''),
		       bygningsnr, street_id, COALESCE(street_number, '')
		FROM fm_location4`, loc1, "loc1, loc2, loc3, loc4")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fm_location4: %w", err)
	}
	defer rows.Close()

	var leaves []hierarchy.LeafRecord
	for rows.Next() {
		var l hierarchy.LeafRecord
		var bygningsnr, streetID sql.NullInt64
		if err := rows.Scan(&l.LocationCode, &l.Loc1, &l.Loc2, &l.Loc3, &l.Loc4, &bygningsnr, &streetID, &l.StreetNumber); err != nil {
			return nil, fmt.Errorf("failed to scan fm_location4 row: %w", err)
		}
		if bygningsnr.Valid {
			l.Bygningsnr = &bygningsnr.Int64
		}
		if streetID.Valid {
			l.StreetID = &streetID.Int64
		}
		leaves = append(leaves, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fm_location4: %w", err)
	}

	debug.DebugOutput(s.debug, "fm_location4: %d rows", len(leaves))
	return leaves, nil
}

// QueryLevel1 loads the registered properties
func (s *Store) QueryLevel1(ctx context.Context, loc1 string) ([]hierarchy.Level1Entry, error) {
	query, args := s.scoped("SELECT COALESCE(location_code, ''), loc1, COALESCE(loc1_name, '') FROM fm_location1", loc1, "loc1")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fm_location1: %w", err)
	}
	defer rows.Close()

	var entries []hierarchy.Level1Entry
	for rows.Next() {
		var e hierarchy.Level1Entry
		if err := rows.Scan(&e.LocationCode, &e.Loc1, &e.Name); err != nil {
			return nil, fmt.Errorf("failed to scan fm_location1 row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// QueryLevel2 loads the registered buildings
func (s *Store) QueryLevel2(ctx context.Context, loc1 string) ([]hierarchy.Level2Entry, error) {
	query, args := s.scoped("SELECT COALESCE(location_code, ''), loc1, loc2, COALESCE(loc2_name, '') FROM fm_location2", loc1, "loc1, loc2")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fm_location2: %w", err)
	}
	defer rows.Close()

	var entries []hierarchy.Level2Entry
	for rows.Next() {
		var e hierarchy.Level2Entry
		if err := rows.Scan(&e.LocationCode, &e.Loc1, &e.Loc2, &e.Name); err != nil {
			return nil, fmt.Errorf("failed to scan fm_location2 row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// QueryLevel3 loads the registered entrances
func (s *Store) QueryLevel3(ctx context.Context, loc1 string) ([]hierarchy.Level3Entry, error) {
	query, args := s.scoped("SELECT COALESCE(location_code, ''), loc1, loc2, loc3, COALESCE(loc3_name, '') FROM fm_location3", loc1, "loc1, loc2, loc3")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fm_location3: %w", err)
	}
	defer rows.Close()

	var entries []hierarchy.Level3Entry
	for rows.Next() {
		var e hierarchy.Level3Entry
		if err := rows.Scan(&e.LocationCode, &e.Loc1, &e.Loc2, &e.Loc3, &e.Name); err != nil {
			return nil, fmt.Errorf("failed to scan fm_location3 row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LookupStreetName returns the street's name, or "" for unknown streets
func (s *Store) LookupStreetName(ctx context.Context, streetID int64) (string, error) {
	var name sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT descr FROM fm_streetaddress WHERE id = "+s.placeholder(1), streetID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up street %d: %w", streetID, err)
	}
	return name.String, nil
}

// ListLoc1 returns every site carrying units or buildings
func (s *Store) ListLoc1(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT loc1 FROM fm_location4
		UNION
		SELECT loc1 FROM fm_location2
		ORDER BY loc1`)
	if err != nil {
		return nil, fmt.Errorf("failed to list loc1: %w", err)
	}
	defer rows.Close()

	var loc1s []string
	for rows.Next() {
		var loc1 string
		if err := rows.Scan(&loc1); err != nil {
			return nil, fmt.Errorf("failed to scan loc1: %w", err)
		}
		loc1s = append(loc1s, loc1)
	}
	return loc1s, rows.Err()
}

// ListTablesWithLocationColumns maps every table to its location columns
func (s *Store) ListTablesWithLocationColumns(ctx context.Context) (map[string][]string, error) {
	in := make([]string, len(locationColumns))
	for i, c := range locationColumns {
		in[i] = "'" + c + "'"
	}

	var query string
	if s.driver == "sqlite" {
		query = `
			SELECT m.name, p.name
			FROM sqlite_master AS m
			JOIN pragma_table_info(m.name) AS p
			WHERE m.type = 'table' AND p.name IN (` + strings.Join(in, ", ") + `)
			ORDER BY m.name, p.cid`
	} else {
		query = `
			SELECT table_name, column_name
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND column_name IN (` + strings.Join(in, ", ") + `)
			ORDER BY table_name, ordinal_position`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list location columns: %w", err)
	}
	defer rows.Close()

	tables := make(map[string][]string)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("failed to scan location column: %w", err)
		}
		tables[table] = append(tables[table], column)
	}
	return tables, rows.Err()
}

// WithinTx runs fn in a transaction, committing only when fn succeeds
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx hierarchy.Execer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
