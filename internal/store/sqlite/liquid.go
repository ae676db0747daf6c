package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"xstream/internal/store"
)

const liquidColumns = "id, frame_id, user_id, user_name, face, content, committed, processed, created_at"

// UpsertLiquid keeps one uncommitted submission per user per frame: a
// resubmission replaces the draft in place, keyed on the partial unique
// index over uncommitted rows.
func (c *Client) UpsertLiquid(ctx context.Context, l store.Liquid) (*store.Liquid, error) {
	query := `
	INSERT INTO liquid (id, frame_id, user_id, user_name, face, content, committed, processed, created_at)
	VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?)
	ON CONFLICT (frame_id, user_id) WHERE committed = 0 DO UPDATE SET
		user_name = excluded.user_name,
		face = excluded.face,
		content = excluded.content,
		created_at = excluded.created_at
	RETURNING ` + liquidColumns

	row := c.db.QueryRowContext(ctx, query, l.ID, l.FrameID, l.UserID, l.UserName, l.Face, l.Content, formatTime(l.CreatedAt))
	out, err := scanLiquidRow(row)
	if err != nil {
		return nil, fmt.Errorf("upserting submission: %w", err)
	}
	return out, nil
}

func (c *Client) GetLiquid(ctx context.Context, id string) (*store.Liquid, error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+liquidColumns+" FROM liquid WHERE id = ?", id)
	out, err := scanLiquidRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting submission: %w", err)
	}
	return out, nil
}

func (c *Client) ListFrameLiquid(ctx context.Context, frameID string) ([]store.Liquid, error) {
	query := "SELECT " + liquidColumns + " FROM liquid WHERE frame_id = ? ORDER BY created_at ASC, id ASC"
	rows, err := c.db.QueryContext(ctx, query, frameID)
	if err != nil {
		return nil, fmt.Errorf("listing frame submissions: %w", err)
	}
	defer rows.Close()

	var liquids []store.Liquid
	for rows.Next() {
		l, err := scanLiquidRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		liquids = append(liquids, *l)
	}
	return liquids, rows.Err()
}

func (c *Client) CommitLiquid(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, "UPDATE liquid SET committed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("committing submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("committing submission: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("committing submission: no submission %s", id)
	}
	return nil
}

func (c *Client) MarkLiquidProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := "UPDATE liquid SET processed = 1 WHERE id IN (" + placeholders + ")"
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("marking submissions processed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLiquidRow(row rowScanner) (*store.Liquid, error) {
	var l store.Liquid
	var createdAt string
	err := row.Scan(&l.ID, &l.FrameID, &l.UserID, &l.UserName, &l.Face, &l.Content, &l.Committed, &l.Processed, &createdAt)
	if err != nil {
		return nil, err
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &l, nil
}
