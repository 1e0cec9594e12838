// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// EnsureArtifactTable creates the versioned artifact table if it is missing.
func (c *PostgresClient) EnsureArtifactTable(ctx context.Context, table string) error {
	if !artifacts.ValidTableName(table) {
		return fmt.Errorf("invalid artifact table name %q", table)
	}
	_, err := c.DB.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	name       TEXT        NOT NULL,
	version    INTEGER     NOT NULL,
	payload    BYTEA       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (name, version)
)`, table))
	return err
}

// SaveArtifact inserts payload as the next version of name and returns it.
func (c *PostgresClient) SaveArtifact(ctx context.Context, table, name string, payload []byte) (int, error) {
	if !artifacts.ValidTableName(table) {
		return 0, fmt.Errorf("invalid artifact table name %q", table)
	}
	query := fmt.Sprintf(`INSERT INTO %s (name, version, payload)
SELECT $1, COALESCE(MAX(version), 0) + 1, $2 FROM %s WHERE name = $1
RETURNING version`, table, table)

	var version int
	if err := c.DB.QueryRowContext(ctx, query, name, payload).Scan(&version); err != nil {
		return 0, fmt.Errorf("save artifact %s: %w", name, err)
	}
	return version, nil
}
