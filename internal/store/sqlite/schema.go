package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS users (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS frames (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		pscale_floor   INTEGER NOT NULL DEFAULT 0,
		pscale_ceiling INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS liquid (
		id         TEXT PRIMARY KEY,
		frame_id   TEXT NOT NULL REFERENCES frames(id),
		user_id    TEXT NOT NULL,
		user_name  TEXT NOT NULL DEFAULT '',
		face       TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		committed  INTEGER NOT NULL DEFAULT 0,
		processed  INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_liquid_draft
		ON liquid (frame_id, user_id) WHERE committed = 0;
	CREATE INDEX IF NOT EXISTS idx_liquid_frame ON liquid (frame_id);

	CREATE TABLE IF NOT EXISTS content (
		id           TEXT PRIMARY KEY,
		frame_id     TEXT NOT NULL REFERENCES frames(id),
		content_type TEXT NOT NULL,
		name         TEXT NOT NULL,
		data         TEXT NOT NULL DEFAULT '{}',
		active       INTEGER NOT NULL DEFAULT 1,
		created_at   TEXT NOT NULL,
		created_by   TEXT NOT NULL REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_content_frame_active ON content (frame_id, active);

	CREATE TABLE IF NOT EXISTS solid (
		id                 TEXT PRIMARY KEY,
		frame_id           TEXT NOT NULL REFERENCES frames(id),
		face               TEXT NOT NULL,
		narrative          TEXT NOT NULL DEFAULT '',
		content_data       TEXT,
		skill_data         TEXT,
		source_ids         TEXT NOT NULL DEFAULT '[]',
		triggering_user_id TEXT NOT NULL DEFAULT '',
		participant_ids    TEXT NOT NULL DEFAULT '[]',
		model              TEXT NOT NULL DEFAULT '',
		input_tokens       INTEGER NOT NULL DEFAULT 0,
		output_tokens      INTEGER NOT NULL DEFAULT 0,
		created_at         TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_solid_frame_created ON solid (frame_id, created_at);

	CREATE TABLE IF NOT EXISTS skill_packages (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		level      TEXT NOT NULL,
		frame_id   TEXT,
		created_by TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_frame_custom_package
		ON skill_packages (frame_id) WHERE level = 'frame';

	CREATE TABLE IF NOT EXISTS frame_packages (
		frame_id   TEXT NOT NULL REFERENCES frames(id),
		package_id TEXT NOT NULL REFERENCES skill_packages(id),
		priority   INTEGER NOT NULL,
		PRIMARY KEY (frame_id, package_id)
	);

	CREATE TABLE IF NOT EXISTS skills (
		id         TEXT PRIMARY KEY,
		package_id TEXT NOT NULL REFERENCES skill_packages(id),
		name       TEXT NOT NULL,
		category   TEXT NOT NULL,
		applies_to TEXT NOT NULL DEFAULT '[]',
		content    TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_skills_package ON skills (package_id);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
