package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"xstream/internal/store"
)

const liquidColumns = "id, frame_id, user_id, user_name, face, content, committed, processed, created_at"

func (c *Client) UpsertLiquid(ctx context.Context, l store.Liquid) (*store.Liquid, error) {
	query := `
	INSERT INTO liquid (id, frame_id, user_id, user_name, face, content, committed, processed, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, FALSE, FALSE, $7)
	ON CONFLICT (frame_id, user_id) WHERE committed = FALSE DO UPDATE SET
		user_name = EXCLUDED.user_name,
		face = EXCLUDED.face,
		content = EXCLUDED.content,
		created_at = EXCLUDED.created_at
	RETURNING ` + liquidColumns

	row := c.pool.QueryRow(ctx, query, l.ID, l.FrameID, l.UserID, l.UserName, l.Face, l.Content, timeOrNow(l.CreatedAt))
	out, err := scanLiquid(row)
	if err != nil {
		return nil, fmt.Errorf("upserting submission: %w", err)
	}
	return out, nil
}

func (c *Client) GetLiquid(ctx context.Context, id string) (*store.Liquid, error) {
	row := c.pool.QueryRow(ctx, "SELECT "+liquidColumns+" FROM liquid WHERE id = $1", id)
	out, err := scanLiquid(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting submission: %w", err)
	}
	return out, nil
}

func (c *Client) ListFrameLiquid(ctx context.Context, frameID string) ([]store.Liquid, error) {
	query := "SELECT " + liquidColumns + " FROM liquid WHERE frame_id = $1 ORDER BY created_at ASC, id ASC"
	rows, err := c.pool.Query(ctx, query, frameID)
	if err != nil {
		return nil, fmt.Errorf("listing frame submissions: %w", err)
	}
	defer rows.Close()

	var liquids []store.Liquid
	for rows.Next() {
		l, err := scanLiquid(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		liquids = append(liquids, *l)
	}
	return liquids, rows.Err()
}

func (c *Client) CommitLiquid(ctx context.Context, id string) error {
	tag, err := c.pool.Exec(ctx, "UPDATE liquid SET committed = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("committing submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("committing submission: no submission %s", id)
	}
	return nil
}

func (c *Client) MarkLiquidProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := c.pool.Exec(ctx, "UPDATE liquid SET processed = TRUE WHERE id = ANY($1)", ids); err != nil {
		return fmt.Errorf("marking submissions processed: %w", err)
	}
	return nil
}

func scanLiquid(row pgx.Row) (*store.Liquid, error) {
	var l store.Liquid
	err := row.Scan(&l.ID, &l.FrameID, &l.UserID, &l.UserName, &l.Face, &l.Content, &l.Committed, &l.Processed, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
