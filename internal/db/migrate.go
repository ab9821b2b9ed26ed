package db

import (
	"context"
	"fmt"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS videos (
		id           UUID PRIMARY KEY,
		media_ids    TEXT[] NOT NULL,
		video_url    TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		error        TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_created_at ON videos (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS check_ins (
		id         UUID PRIMARY KEY,
		answers    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_check_ins_created_at ON check_ins (created_at DESC)`,
}

// Migrate creates the tables this service needs.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
