package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"xstream/internal/store"
)

func (c *Client) EnsureUser(ctx context.Context, u store.User) error {
	query := `
	INSERT INTO users (id, name) VALUES (?, ?)
	ON CONFLICT (id) DO UPDATE SET name = excluded.name
	`
	if _, err := c.db.ExecContext(ctx, query, u.ID, u.Name); err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	return nil
}

func (c *Client) CreateFrame(ctx context.Context, f store.Frame) error {
	query := `
	INSERT INTO frames (id, name, pscale_floor, pscale_ceiling, created_at)
	VALUES (?, ?, ?, ?, ?)
	`
	_, err := c.db.ExecContext(ctx, query, f.ID, f.Name, f.PscaleFloor, f.PscaleCeiling, formatTime(f.CreatedAt))
	if err != nil {
		return fmt.Errorf("creating frame: %w", err)
	}
	return nil
}

func (c *Client) GetFrame(ctx context.Context, id string) (*store.Frame, error) {
	query := `
	SELECT id, name, pscale_floor, pscale_ceiling, created_at
	FROM frames WHERE id = ?
	`
	var f store.Frame
	var createdAt string
	err := c.db.QueryRowContext(ctx, query, id).Scan(&f.ID, &f.Name, &f.PscaleFloor, &f.PscaleCeiling, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting frame: %w", err)
	}
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) ListFrames(ctx context.Context) ([]store.Frame, error) {
	query := `
	SELECT id, name, pscale_floor, pscale_ceiling, created_at
	FROM frames ORDER BY created_at ASC
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing frames: %w", err)
	}
	defer rows.Close()

	var frames []store.Frame
	for rows.Next() {
		var f store.Frame
		var createdAt string
		if err := rows.Scan(&f.ID, &f.Name, &f.PscaleFloor, &f.PscaleCeiling, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning frame: %w", err)
		}
		if f.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}
