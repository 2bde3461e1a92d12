// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tour-sync/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the canonical store connection.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens the canonical store. The connection is lazy; call Ping to check it.
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

// NewPostgresFromDB wraps an existing handle, used with sqlmock in tests.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
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

// schema is applied in order; every statement is safe to re-run.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tours (
		id SERIAL PRIMARY KEY,
		arctic_id TEXT NOT NULL UNIQUE,
		master_name TEXT,
		arctic_shortname TEXT,
		standard_price TEXT,
		duration TEXT,
		business_group_id TEXT,
		variant_type TEXT,
		outline_document_id TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS website_data (
		id SERIAL PRIMARY KEY,
		website_id TEXT NOT NULL UNIQUE,
		master_name TEXT,
		subtitle TEXT,
		region TEXT,
		skill_level TEXT,
		season TEXT,
		short_description TEXT,
		description TEXT,
		departs_from TEXT,
		distance TEXT,
		pricing_info TEXT,
		fees_info JSONB NOT NULL DEFAULT '{}'::jsonb,
		special_notes TEXT,
		dates_available TEXT,
		reservation_link TEXT,
		images TEXT[] NOT NULL DEFAULT '{}',
		last_synced TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS tour_content_links (
		arctic_id TEXT PRIMARY KEY REFERENCES tours (arctic_id) ON DELETE CASCADE,
		website_id TEXT,
		status TEXT NOT NULL,
		method TEXT,
		checked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sync_runs (
		run_id UUID NOT NULL,
		stage TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		processed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		PRIMARY KEY (run_id, stage)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_website_data_master_name ON website_data (lower(master_name))`,
}

// Migrate creates the canonical store tables.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}
