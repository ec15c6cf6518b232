package hierarchy

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx records statements and fails on the configured one
type fakeTx struct {
	failOn    string
	executed  []string
	began     int
	committed bool
}

func (f *fakeTx) ExecContext(_ context.Context, query string, _ ...interface{}) (sql.Result, error) {
	if query == f.failOn {
		return nil, errors.New("syntax error")
	}
	f.executed = append(f.executed, query)
	return nil, nil
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Execer) error) error {
	f.began++
	if err := fn(ctx, f); err != nil {
		f.executed = nil
		return err
	}
	f.committed = true
	return nil
}

func testBatches() Batches {
	return Batches{
		CategoryMissingLoc2:      {"insert l2"},
		CategoryMissingLoc3:      {"insert l3 a", "insert l3 b"},
		CategoryLocation4Updates: {"move 1"},
		CategoryCorrections:      {"create", "audit 1"},
	}
}

func TestExecuteRunsInCategoryOrder(t *testing.T) {
	tx := &fakeTx{}
	counts, err := NewExecutor(tx, false).Execute(context.Background(), testBatches(),
		[]string{CategoryCorrections, CategoryLocation4Updates, CategoryMissingLoc3, CategoryMissingLoc2})
	require.NoError(t, err)

	assert.Equal(t, []string{"insert l2", "insert l3 a", "insert l3 b", "move 1", "create", "audit 1"}, tx.executed)
	assert.Equal(t, map[string]int{
		CategoryMissingLoc2:      1,
		CategoryMissingLoc3:      2,
		CategoryLocation4Updates: 1,
		CategoryCorrections:      2,
	}, counts)
	assert.Equal(t, 1, tx.began)
	assert.True(t, tx.committed)
}

func TestExecuteOnlyChosen(t *testing.T) {
	tx := &fakeTx{}
	counts, err := NewExecutor(tx, false).Execute(context.Background(), testBatches(), ParseBatchNames("missing_loc3, loc2_name_updates"))
	require.NoError(t, err)

	assert.Equal(t, []string{"insert l3 a", "insert l3 b"}, tx.executed)
	assert.Equal(t, map[string]int{CategoryMissingLoc3: 2, CategoryLoc2NameUpdates: 0}, counts)
}

func TestExecuteRejectsUnknownBatch(t *testing.T) {
	tx := &fakeTx{}
	_, err := NewExecutor(tx, false).Execute(context.Background(), testBatches(), []string{CategoryMissingLoc2, "drop_everything"})

	require.ErrorIs(t, err, ErrUnknownBatch)
	assert.Zero(t, tx.began, "nothing may run before validation")
}

func TestExecuteRollsBackOnFailure(t *testing.T) {
	tx := &fakeTx{failOn: "move 1"}
	_, err := NewExecutor(tx, false).Execute(context.Background(), testBatches(), ParseBatchNames("all"))

	var stmtErr *StatementExecutionError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, CategoryLocation4Updates, stmtErr.Category)
	assert.Equal(t, 0, stmtErr.Index)
	assert.Equal(t, "move 1", stmtErr.Statement)
	assert.EqualError(t, errors.Unwrap(err), "syntax error")
	assert.False(t, tx.committed)
	assert.Empty(t, tx.executed)
}

func TestExecuteNothingChosen(t *testing.T) {
	tx := &fakeTx{}
	counts, err := NewExecutor(tx, false).Execute(context.Background(), testBatches(), ParseBatchNames(" , "))
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Zero(t, tx.began)
}

func TestParseBatchNames(t *testing.T) {
	assert.Equal(t, Categories, ParseBatchNames("missing_loc2,all"))
	assert.Equal(t, []string{"a", "b"}, ParseBatchNames(" a ,,b"))
	assert.Nil(t, ParseBatchNames(""))
}
