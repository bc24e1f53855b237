package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/padhaiwithai/student-logins/internal/logger"
)

// Upper bound on pooled connections; the tools run one statement at a time.
const defaultMaxConns = 4

type DB struct {
	pool *pgxpool.Pool
}

// NewDB parses connectionString, opens a connection pool and pings the database.
func NewDB(ctx context.Context, connectionString string) (*DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MaxConns > defaultMaxConns {
		cfg.MaxConns = defaultMaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.LogError("Failed to create connection pool", err)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.LogError("Failed to ping database", err, "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.LogDebug("Connected to database", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return &DB{
		pool: pool,
	}, nil
}

// Close gracefully closes the connection pool and releases all resources.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Pool returns the underlying pgxpool.Pool for direct access when needed.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}
