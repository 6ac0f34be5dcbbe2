package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

type migration struct {
	version string
	sql     string
}

var migrations = []migration{
	{
		version: "001_surface_sessions",
		sql: `
			CREATE TABLE IF NOT EXISTS surface_sessions (
				token_hash VARCHAR(64) PRIMARY KEY,
				surface VARCHAR(32) NOT NULL,
				expires_at TIMESTAMPTZ NOT NULL,
				revoked BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`,
	},
	{
		version: "002_bridge_settings",
		sql: `
			CREATE TABLE IF NOT EXISTS bridge_settings (
				id SMALLINT PRIMARY KEY CHECK (id = 1),
				api_url TEXT NOT NULL,
				ingest_token TEXT NOT NULL,
				guild_id TEXT NOT NULL,
				author_name TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`,
	},
	{
		version: "003_compose_draft",
		sql: `
			CREATE TABLE IF NOT EXISTS compose_draft (
				id SMALLINT PRIMARY KEY CHECK (id = 1),
				url TEXT NOT NULL,
				draft_text TEXT NOT NULL DEFAULT '',
				force_refresh BOOLEAN NOT NULL DEFAULT FALSE,
				source VARCHAR(32) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)
		`,
	},
	{
		version: "004_origin_grants",
		sql: `
			CREATE TABLE IF NOT EXISTS origin_grants (
				origin TEXT PRIMARY KEY,
				granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`,
	},
}

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = $1", m.version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", m.version, err)
		}

		if _, err := tx.Exec(ctx, m.sql); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("execute migration %s: %w", m.version, err)
		}

		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.version, err)
		}

		log.Printf("Applied migration: %s", m.version)
	}

	return nil
}
