package hierarchy

import (
	"errors"
	"fmt"
)

var (
	// ErrCodeSpaceExhausted is returned when every code 01-99 of a scope is taken
	ErrCodeSpaceExhausted = errors.New("location code space exhausted")

	// ErrUnknownBatch is returned when execution names a batch category that does not exist
	ErrUnknownBatch = errors.New("unknown batch category")
)

// DataAccessError wraps a failure while loading from the store. Nothing has
// been written when it is returned.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access failed during %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// StatementExecutionError reports the statement that aborted an execution.
// The surrounding transaction has been rolled back.
type StatementExecutionError struct {
	Category  string
	Index     int
	Statement string
	Err       error
}

func (e *StatementExecutionError) Error() string {
	return fmt.Sprintf("batch %s statement %d failed (transaction rolled back): %v", e.Category, e.Index+1, e.Err)
}

func (e *StatementExecutionError) Unwrap() error { return e.Err }

// WarningKind classifies non-fatal findings
type WarningKind string

const (
	// WarnAmbiguousAssignment marks a code allocated without any evidence
	WarnAmbiguousAssignment WarningKind = "ambiguous_assignment"
	// WarnLoc4Collision marks two rows that would share a location code
	WarnLoc4Collision WarningKind = "loc4_collision"
	// WarnInvalidLocationCode marks a stored code that is not its parent's
	// code plus its own segment
	WarnInvalidLocationCode WarningKind = "invalid_location_code"
	// WarnOrphanedEntry marks a row whose parent row does not exist
	WarnOrphanedEntry WarningKind = "orphaned_entry"
)

// Warning is a recoverable condition found during a run
type Warning struct {
	Kind    WarningKind `json:"kind" yaml:"kind"`
	Loc1    string      `json:"loc1" yaml:"loc1"`
	Loc2    string      `json:"loc2,omitempty" yaml:"loc2,omitempty"`
	Loc3    string      `json:"loc3,omitempty" yaml:"loc3,omitempty"`
	Loc4    string      `json:"loc4,omitempty" yaml:"loc4,omitempty"`
	Message string      `json:"message" yaml:"message"`
}
