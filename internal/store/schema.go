package store

import (
	"context"
	_ "embed"
	"fmt"
	"os"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates the location hierarchy tables when they are missing
func (s *Store) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ExecuteSQLFiles executes multiple SQL files in order
func (s *Store) ExecuteSQLFiles(ctx context.Context, filenames ...string) error {
	for _, filename := range filenames {
		if err := s.ExecuteSQLFile(ctx, filename); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteSQLFile executes SQL commands from a file, typically a data dump
// loaded into a local copy before analysis
func (s *Store) ExecuteSQLFile(ctx context.Context, filename string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read SQL file: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute SQL file %s: %w", filename, err)
	}
	return nil
}

// Ping checks the connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the database driver name
func (s *Store) Driver() string {
	return s.driver
}
