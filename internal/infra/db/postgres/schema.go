package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Schema statements are idempotent so startup can always run them.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS groups (
		id         BIGINT PRIMARY KEY,
		title      TEXT NOT NULL,
		username   TEXT,
		added_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		is_active  BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS group_members (
		group_id      BIGINT NOT NULL,
		user_key      BIGINT NOT NULL,
		identity_kind SMALLINT NOT NULL DEFAULT 0,
		handle        TEXT,
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (group_id, user_key)
	);`,
	`CREATE TABLE IF NOT EXISTS group_settings (
		group_id          BIGINT PRIMARY KEY,
		delete_links      BOOLEAN NOT NULL DEFAULT TRUE,
		delete_ads        BOOLEAN NOT NULL DEFAULT TRUE,
		delete_join_leave BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_handle
		ON group_members (group_id, LOWER(handle));`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_verified
		ON group_members (group_id, is_verified);`,
}

// EnsureSchema creates the tables and indexes the bot needs.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
