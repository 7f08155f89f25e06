package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const embeddedDir = "migrations"

// Migration is one numbered SQL file, e.g. "002_task_activity.sql"
type Migration struct {
	Version  int
	Name     string
	SQL      string
	Checksum string
}

// MigrationStatus describes a known migration against the database
type MigrationStatus struct {
	Version   int
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// Migrator applies schema migrations, each in its own transaction.
// An applied migration whose file content changed is reported as an error.
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

type appliedMigration struct {
	checksum  string
	appliedAt time.Time
}

// Run applies the history schema migrations bundled with the binary
func (m *Migrator) Run(ctx context.Context) (int, error) {
	return m.RunMigrations(ctx, embeddedMigrations, embeddedDir)
}

// Status lists the bundled migrations and whether each is applied
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	return m.StatusOf(ctx, embeddedMigrations, embeddedDir)
}

// RunMigrations applies pending migrations found under dir and returns how many ran
func (m *Migrator) RunMigrations(ctx context.Context, fsys fs.FS, dir string) (int, error) {
	migrations, applied, err := m.prepare(ctx, fsys, dir)
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, mig := range migrations {
		if prev, ok := applied[mig.Version]; ok {
			if prev.checksum != "" && prev.checksum != mig.Checksum {
				return ran, fmt.Errorf("migration %d (%s) was modified after it was applied", mig.Version, mig.Name)
			}
			continue
		}

		m.logger.Info("Applying migration",
			zap.Int("version", mig.Version),
			zap.String("name", mig.Name))

		if err := m.apply(ctx, mig); err != nil {
			return ran, fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}
		ran++
	}

	m.logger.Info("Database migrations completed",
		zap.Int("applied", ran),
		zap.Int("total", len(migrations)))
	return ran, nil
}

// StatusOf reports migrations under dir against the database
func (m *Migrator) StatusOf(ctx context.Context, fsys fs.FS, dir string) ([]MigrationStatus, error) {
	migrations, applied, err := m.prepare(ctx, fsys, dir)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(migrations))
	for _, mig := range migrations {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if prev, ok := applied[mig.Version]; ok {
			st.Applied = true
			st.AppliedAt = prev.appliedAt
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *Migrator) prepare(ctx context.Context, fsys fs.FS, dir string) ([]Migration, map[int]appliedMigration, error) {
	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			checksum   TEXT NOT NULL DEFAULT '',
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return nil, nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	migrations, err := LoadMigrations(fsys, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return migrations, applied, nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]appliedMigration, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version, checksum, applied_at FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]appliedMigration)
	for rows.Next() {
		var version int
		var a appliedMigration
		if err := rows.Scan(&version, &a.checksum, &a.appliedAt); err != nil {
			return nil, err
		}
		out[version] = a
	}
	return out, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig Migration) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				m.logger.Error("Failed to rollback migration", zap.Int("version", mig.Version), zap.Error(rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, mig.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, checksum) VALUES (?, ?, ?)",
		mig.Version, mig.Name, mig.Checksum,
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}

// LoadMigrations reads the .sql files directly under dir, ordered by numeric prefix
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}

		mig, err := parseMigrationName(e.Name())
		if err != nil {
			return nil, err
		}
		if other, dup := seen[mig.Version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s", mig.Version, other, e.Name())
		}
		seen[mig.Version] = e.Name()

		content, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", e.Name(), err)
		}
		sum := sha256.Sum256(content)
		mig.SQL = string(content)
		mig.Checksum = hex.EncodeToString(sum[:])
		migrations = append(migrations, mig)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func parseMigrationName(filename string) (Migration, error) {
	base := strings.TrimSuffix(filename, ".sql")
	prefix, name, _ := strings.Cut(base, "_")
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return Migration{}, fmt.Errorf("invalid migration filename %q: want NNN_name.sql", filename)
	}
	return Migration{Version: version, Name: name}, nil
}
