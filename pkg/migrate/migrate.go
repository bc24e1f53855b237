// Package migrate applies and rolls back the PostgreSQL schema migrations.
// Migration 0 creates the bookkeeping table and is never rolled back.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/padhaiwithai/student-logins/internal/logger"
)

// NoVersion is the current version of a database with no migrations applied.
const NoVersion = -1

type Migration struct {
	Version int
	UpSQL   string
	DownSQL string
}

type Migrator struct {
	conn       *pgx.Conn
	migrations []Migration
}

func NewMigrator(ctx context.Context, connectionString string, fsys fs.FS) (*Migrator, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	migrations, err := Load(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	conn, err := pgx.Connect(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Migrator{
		conn:       conn,
		migrations: migrations,
	}, nil
}

func (m *Migrator) Close(ctx context.Context) error {
	return m.conn.Close(ctx)
}

// Load reads NNNNNN_name.up.sql and NNNNNN_name.down.sql files from the root
// of fsys. Versions must run from 0 without gaps and each needs an up file.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		baseName := entry.Name()
		if len(baseName) < 6 {
			continue
		}

		version, err := strconv.Atoi(baseName[:6])
		if err != nil {
			continue
		}

		var isUp bool
		switch {
		case strings.HasSuffix(baseName, ".up.sql"):
			isUp = true
		case strings.HasSuffix(baseName, ".down.sql"):
			isUp = false
		default:
			continue
		}

		data, err := fs.ReadFile(fsys, baseName)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", baseName, err)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version}
			byVersion[version] = mig
		}
		if isUp {
			mig.UpSQL = string(data)
		} else {
			mig.DownSQL = string(data)
		}
	}

	if len(byVersion) == 0 {
		return nil, errors.New("no valid migration files found")
	}

	versions := make([]int, 0, len(byVersion))
	for v := range byVersion {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	migrations := make([]Migration, 0, len(versions))
	for i, v := range versions {
		if v != i {
			return nil, fmt.Errorf("migration %d is missing", i)
		}
		if strings.TrimSpace(byVersion[v].UpSQL) == "" {
			return nil, fmt.Errorf("migration %d is missing up.sql file", v)
		}
		migrations = append(migrations, *byVersion[v])
	}
	return migrations, nil
}

// GetCurrentVersion returns the highest applied version, or NoVersion.
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}

	var version sql.NullInt64 // NULL from MAX() on an empty table
	err := m.conn.QueryRow(ctx, "SELECT MAX(version) FROM migrations").Scan(&version)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
			return NoVersion, nil // Table doesn't exist yet
		}
		return 0, fmt.Errorf("failed to get current migration version: %w", err)
	}

	if !version.Valid {
		return NoVersion, nil
	}
	return int(version.Int64), nil
}

// Up applies all pending migrations in order.
func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version before applying migrations: %w", err)
	}

	for _, mig := range Pending(m.migrations, currentVersion, len(m.migrations)) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled while applying migration %d: %w", mig.Version, err)
		}

		logger.LogInfo("Applying migration", "version", mig.Version)
		if err := m.applyMigration(ctx, mig, true); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}
	}
	return nil
}

// Down rolls back the last migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.Steps(ctx, -1)
}

// Steps applies or rolls back a specific number of migrations.
// Positive steps apply migrations forward, negative steps roll back migrations.
func (m *Migrator) Steps(ctx context.Context, steps int) error {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version before executing steps: %w", err)
	}

	if steps > 0 {
		for _, mig := range Pending(m.migrations, currentVersion, steps) {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("context cancelled while applying migration %d: %w", mig.Version, err)
			}
			logger.LogInfo("Applying migration", "version", mig.Version)
			if err := m.applyMigration(ctx, mig, true); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
			}
		}
		return nil
	}

	for i := 0; i < -steps; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled while rolling back migration %d: %w", currentVersion, err)
		}

		mig, err := Rollback(m.migrations, currentVersion)
		if err != nil {
			return err
		}

		logger.LogInfo("Rolling back migration", "version", mig.Version)
		if err := m.applyMigration(ctx, mig, false); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", mig.Version, err)
		}
		currentVersion = mig.Version - 1
	}
	return nil
}

// Pending returns at most limit migrations that follow currentVersion.
func Pending(migrations []Migration, currentVersion, limit int) []Migration {
	start := currentVersion + 1
	if start >= len(migrations) || limit <= 0 {
		return nil
	}
	end := min(start+limit, len(migrations))
	return migrations[start:end]
}

// Rollback returns the migration that undoes currentVersion.
func Rollback(migrations []Migration, currentVersion int) (Migration, error) {
	if currentVersion <= 0 {
		return Migration{}, errors.New("no migrations to rollback")
	}
	if currentVersion >= len(migrations) {
		return Migration{}, fmt.Errorf("migration %d not found in loaded migrations", currentVersion)
	}

	mig := migrations[currentVersion]
	if strings.TrimSpace(mig.DownSQL) == "" {
		return Migration{}, fmt.Errorf("migration %d does not have a down.sql file or it is empty", currentVersion)
	}
	return mig, nil
}

// applyMigration applies a single migration (up or down) within a transaction.
func (m *Migrator) applyMigration(ctx context.Context, migration Migration, up bool) error {
	sql := migration.DownSQL
	if up {
		sql = migration.UpSQL
	}

	tx, err := m.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, stmt := range Statements(sql) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration SQL for version %d (statement %d): %w\nStatement: %s", migration.Version, i+1, err, stmt)
		}
	}

	if up {
		if _, err := tx.Exec(ctx,
			"INSERT INTO migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING",
			migration.Version,
		); err != nil {
			return fmt.Errorf("failed to record migration version %d: %w", migration.Version, err)
		}
	} else {
		if _, err := tx.Exec(ctx, "DELETE FROM migrations WHERE version = $1", migration.Version); err != nil {
			return fmt.Errorf("failed to remove migration version %d: %w", migration.Version, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Statements splits a migration file on semicolons, dropping empty statements.
func Statements(sql string) []string {
	var stmts []string
	for _, stmt := range strings.Split(sql, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
