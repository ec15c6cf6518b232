package hierarchy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/porticoestate/location-hierarchy/internal/debug"
)

// Execer runs one statement. *sql.Tx satisfies it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// TxRunner runs fn inside one transaction, committing only when fn returns nil
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Execer) error) error
}

// Executor applies chosen batches all-or-nothing
type Executor struct {
	runner TxRunner
	debug  bool
}

// NewExecutor creates an executor writing through runner
func NewExecutor(runner TxRunner, localDebug bool) *Executor {
	return &Executor{runner: runner, debug: localDebug}
}

// ParseBatchNames splits a comma separated list of categories. "all" selects
// every category.
func ParseBatchNames(list string) []string {
	var names []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "all" {
			return append([]string(nil), Categories...)
		}
		names = append(names, part)
	}
	return names
}

// Execute runs every statement of the chosen batches in category order inside
// one transaction and returns the number of statements run per batch. Unknown
// names are rejected before anything is written.
func (e *Executor) Execute(ctx context.Context, batches Batches, chosen []string) (map[string]int, error) {
	selected := make(map[string]bool, len(chosen))
	for _, name := range chosen {
		if !isCategory(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBatch, name)
		}
		selected[name] = true
	}

	counts := make(map[string]int, len(selected))
	for name := range selected {
		counts[name] = 0
	}
	if batchSize(batches, selected) == 0 {
		debug.DebugOutput(e.debug, "Nothing to execute")
		return counts, nil
	}

	done := debug.DebugTiming(e.debug, "execute")
	defer done()

	err := e.runner.WithinTx(ctx, func(ctx context.Context, tx Execer) error {
		for _, category := range Categories {
			if !selected[category] {
				continue
			}
			for i, stmt := range batches[category] {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return &StatementExecutionError{Category: category, Index: i, Statement: stmt, Err: err}
				}
				counts[category]++
			}
			debug.DebugOutput(e.debug, "Executed %d statements from %s", counts[category], category)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func isCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

func batchSize(batches Batches, selected map[string]bool) int {
	n := 0
	for name := range selected {
		n += len(batches[name])
	}
	return n
}
