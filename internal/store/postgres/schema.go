package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS frames (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			pscale_floor   INTEGER NOT NULL DEFAULT 0,
			pscale_ceiling INTEGER NOT NULL DEFAULT 0,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS liquid (
			id         TEXT PRIMARY KEY,
			frame_id   TEXT NOT NULL REFERENCES frames(id),
			user_id    TEXT NOT NULL,
			user_name  TEXT NOT NULL DEFAULT '',
			face       TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			committed  BOOLEAN NOT NULL DEFAULT FALSE,
			processed  BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_liquid_draft
			ON liquid (frame_id, user_id) WHERE committed = FALSE`,
		`CREATE INDEX IF NOT EXISTS idx_liquid_frame ON liquid (frame_id)`,
		`CREATE TABLE IF NOT EXISTS content (
			id           TEXT PRIMARY KEY,
			frame_id     TEXT NOT NULL REFERENCES frames(id),
			content_type TEXT NOT NULL,
			name         TEXT NOT NULL,
			data         JSONB NOT NULL DEFAULT '{}',
			active       BOOLEAN NOT NULL DEFAULT TRUE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			created_by   TEXT NOT NULL REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_content_frame_active ON content (frame_id, active)`,
		`CREATE TABLE IF NOT EXISTS solid (
			id                 TEXT PRIMARY KEY,
			frame_id           TEXT NOT NULL REFERENCES frames(id),
			face               TEXT NOT NULL,
			narrative          TEXT NOT NULL DEFAULT '',
			content_data       JSONB,
			skill_data         JSONB,
			source_ids         TEXT[] NOT NULL DEFAULT '{}',
			triggering_user_id TEXT NOT NULL DEFAULT '',
			participant_ids    TEXT[] NOT NULL DEFAULT '{}',
			model              TEXT NOT NULL DEFAULT '',
			input_tokens       INTEGER NOT NULL DEFAULT 0,
			output_tokens      INTEGER NOT NULL DEFAULT 0,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_solid_frame_created ON solid (frame_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS skill_packages (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			level      TEXT NOT NULL,
			frame_id   TEXT,
			created_by TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_frame_custom_package
			ON skill_packages (frame_id) WHERE level = 'frame'`,
		`CREATE TABLE IF NOT EXISTS frame_packages (
			frame_id   TEXT NOT NULL REFERENCES frames(id),
			package_id TEXT NOT NULL REFERENCES skill_packages(id),
			priority   INTEGER NOT NULL,
			PRIMARY KEY (frame_id, package_id)
		)`,
		`CREATE TABLE IF NOT EXISTS skills (
			id         TEXT PRIMARY KEY,
			package_id TEXT NOT NULL REFERENCES skill_packages(id),
			name       TEXT NOT NULL,
			category   TEXT NOT NULL,
			applies_to TEXT[] NOT NULL DEFAULT '{}',
			content    TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skills_package ON skills (package_id)`,
	}

	for _, stmt := range statements {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}
	return nil
}
