package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/database"
)

func openTxDB(t *testing.T) (*database.DB, *DB) {
	t.Helper()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "tx.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE notes (body TEXT NOT NULL)")
	require.NoError(t, err)
	return db, NewDB(db.DB, zap.NewNop()).WithRetry(3, 0)
}

func countNotes(t *testing.T, db *database.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&n))
	return n
}

func insertNote(ctx context.Context, db *database.DB, body string) error {
	_, err := ExecutorFor(ctx, db.DB).ExecContext(ctx, "INSERT INTO notes (body) VALUES (?)", body)
	return err
}

func TestWithTransaction_CommitAndRollback(t *testing.T) {
	db, tm := openTxDB(t)
	ctx := context.Background()

	require.NoError(t, tm.WithTransaction(ctx, func(txCtx context.Context) error {
		assert.NotNil(t, TxFromContext(txCtx))
		return insertNote(txCtx, db, "kept")
	}))

	boom := errors.New("boom")
	err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, insertNote(txCtx, db, "dropped"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, countNotes(t, db))
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	db, tm := openTxDB(t)
	ctx := context.Background()

	err := tm.WithTransaction(ctx, func(outer context.Context) error {
		require.NoError(t, insertNote(outer, db, "outer"))
		return tm.WithTransaction(outer, func(inner context.Context) error {
			assert.Same(t, TxFromContext(outer), TxFromContext(inner))
			require.NoError(t, insertNote(inner, db, "inner"))
			return errors.New("inner failed")
		})
	})
	require.Error(t, err)
	assert.Equal(t, 0, countNotes(t, db), "the inner failure rolls back the outer work")
}

func TestWithTransaction_RetriesBusy(t *testing.T) {
	db, tm := openTxDB(t)

	attempts := 0
	err := tm.WithTransaction(context.Background(), func(txCtx context.Context) error {
		attempts++
		require.NoError(t, insertNote(txCtx, db, fmt.Sprintf("attempt-%d", attempts)))
		if attempts == 1 {
			return fmt.Errorf("touch activity: %w", sqlite3.Error{Code: sqlite3.ErrBusy})
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, countNotes(t, db), "the busy attempt was rolled back")
}

func TestWithTransaction_GivesUpAfterAttempts(t *testing.T) {
	_, tm := openTxDB(t)

	attempts := 0
	err := tm.WithTransaction(context.Background(), func(context.Context) error {
		attempts++
		return sqlite3.Error{Code: sqlite3.ErrLocked}
	})
	assert.True(t, IsBusy(err))
	assert.Equal(t, 3, attempts)
}

func TestWithTransaction_CancelledWhileWaiting(t *testing.T) {
	_, tm := openTxDB(t)
	tm.WithRetry(5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := tm.WithTransaction(ctx, func(context.Context) error {
		attempts++
		cancel()
		return sqlite3.Error{Code: sqlite3.ErrBusy}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestWithTransaction_PanicRollsBack(t *testing.T) {
	db, tm := openTxDB(t)

	assert.Panics(t, func() {
		_ = tm.WithTransaction(context.Background(), func(txCtx context.Context) error {
			require.NoError(t, insertNote(txCtx, db, "lost"))
			panic("handler bug")
		})
	})
	assert.Equal(t, 0, countNotes(t, db))
}

func TestIsBusy(t *testing.T) {
	assert.True(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, IsBusy(fmt.Errorf("wrapped: %w", sqlite3.Error{Code: sqlite3.ErrLocked})))
	assert.False(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, IsBusy(errors.New("busy")))
	assert.False(t, IsBusy(nil))
}
