package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "data", "history.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"file:data/history.db?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL",
		DSN(Config{Path: "data/history.db"}))
	assert.Equal(t,
		"file::memory:?_busy_timeout=250&_foreign_keys=on&cache=shared&mode=memory",
		DSN(Config{Path: ":memory:", BusyTimeout: 250 * time.Millisecond}))
}

func TestMigrator_RunEmbedded(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())
	ctx := context.Background()

	ran, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ran)

	ran, err = m.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ran, "second run is a no-op")

	_, err = db.Exec("INSERT INTO task_history (task_id, trigger_name) VALUES ('t1', 'ASSIGN')")
	assert.NoError(t, err)

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "task_history", statuses[0].Name)
	assert.Equal(t, "task_activity", statuses[1].Name)
	for _, s := range statuses {
		assert.True(t, s.Applied)
		assert.False(t, s.AppliedAt.IsZero())
	}
}

func TestMigrator_OrdersByVersion(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"sql/010_add_col.sql": {Data: []byte("ALTER TABLE t ADD COLUMN b TEXT;")},
		"sql/002_create.sql":  {Data: []byte("CREATE TABLE t (a TEXT);")},
		"sql/README.md":       {Data: []byte("ignored")},
	}

	ran, err := m.RunMigrations(context.Background(), fsys, "sql")
	require.NoError(t, err)
	assert.Equal(t, 2, ran)

	_, err = db.Exec("INSERT INTO t (a, b) VALUES ('x', 'y')")
	assert.NoError(t, err)
}

func TestMigrator_StatusShowsPending(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())
	ctx := context.Background()

	fsys := fstest.MapFS{
		"sql/001_create.sql": {Data: []byte("CREATE TABLE t (a TEXT);")},
	}
	_, err := m.RunMigrations(ctx, fsys, "sql")
	require.NoError(t, err)

	fsys["sql/002_index.sql"] = &fstest.MapFile{Data: []byte("CREATE INDEX idx_t_a ON t (a);")}

	statuses, err := m.StatusOf(ctx, fsys, "sql")
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[1].Applied)
	assert.True(t, statuses[1].AppliedAt.IsZero())
}

func TestMigrator_DetectsEditedMigration(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())
	ctx := context.Background()

	fsys := fstest.MapFS{
		"sql/001_create.sql": {Data: []byte("CREATE TABLE t (a TEXT);")},
	}
	_, err := m.RunMigrations(ctx, fsys, "sql")
	require.NoError(t, err)

	fsys["sql/001_create.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE t (a TEXT, b TEXT);")}

	_, err = m.RunMigrations(ctx, fsys, "sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modified after it was applied")
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"sql/001_broken.sql": {Data: []byte("CREATE TABLE ok (a TEXT); NOT VALID SQL;")},
	}

	_, err := m.RunMigrations(context.Background(), fsys, "sql")
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 0, count)

	var tables int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'ok'").Scan(&tables))
	assert.Equal(t, 0, tables)
}

func TestLoadMigrations_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"sql/001_a.sql": {Data: []byte("SELECT 1;")},
				"sql/001_b.sql": {Data: []byte("SELECT 1;")},
			},
			want: "duplicate migration version",
		},
		{
			name: "missing number",
			fsys: fstest.MapFS{"sql/init.sql": {Data: []byte("SELECT 1;")}},
			want: "invalid migration filename",
		},
		{
			name: "zero version",
			fsys: fstest.MapFS{"sql/000_init.sql": {Data: []byte("SELECT 1;")}},
			want: "invalid migration filename",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.fsys, "sql")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMigrations_Checksums(t *testing.T) {
	migrations, err := LoadMigrations(embeddedMigrations, embeddedDir)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Len(t, migrations[0].Checksum, 64)
	assert.NotEqual(t, migrations[0].Checksum, migrations[1].Checksum)
}
