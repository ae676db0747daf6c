package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"xstream/internal/store"
)

func (c *Client) EnsureUser(ctx context.Context, u store.User) error {
	query := `
	INSERT INTO users (id, name) VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`
	if _, err := c.pool.Exec(ctx, query, u.ID, u.Name); err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	return nil
}

func (c *Client) CreateFrame(ctx context.Context, f store.Frame) error {
	query := `
	INSERT INTO frames (id, name, pscale_floor, pscale_ceiling, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := c.pool.Exec(ctx, query, f.ID, f.Name, f.PscaleFloor, f.PscaleCeiling, timeOrNow(f.CreatedAt)); err != nil {
		return fmt.Errorf("creating frame: %w", err)
	}
	return nil
}

func (c *Client) GetFrame(ctx context.Context, id string) (*store.Frame, error) {
	query := `
	SELECT id, name, pscale_floor, pscale_ceiling, created_at
	FROM frames WHERE id = $1
	`
	var f store.Frame
	err := c.pool.QueryRow(ctx, query, id).Scan(&f.ID, &f.Name, &f.PscaleFloor, &f.PscaleCeiling, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting frame: %w", err)
	}
	return &f, nil
}

func (c *Client) ListFrames(ctx context.Context) ([]store.Frame, error) {
	query := `
	SELECT id, name, pscale_floor, pscale_ceiling, created_at
	FROM frames ORDER BY created_at ASC
	`
	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing frames: %w", err)
	}
	defer rows.Close()

	var frames []store.Frame
	for rows.Next() {
		var f store.Frame
		if err := rows.Scan(&f.ID, &f.Name, &f.PscaleFloor, &f.PscaleCeiling, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning frame: %w", err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}
