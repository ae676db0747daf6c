package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"xstream/internal/store"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (c *Client) InsertContent(ctx context.Context, ct store.Content) error {
	return insertContent(ctx, c.db, ct)
}

func insertContent(ctx context.Context, db execer, ct store.Content) error {
	dataJSON, err := json.Marshal(ct.Data)
	if err != nil {
		return fmt.Errorf("marshaling content data: %w", err)
	}

	query := `
	INSERT INTO content (id, frame_id, content_type, name, data, active, created_at, created_by)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query, ct.ID, ct.FrameID, ct.Type, ct.Name, dataJSON, ct.Active, formatTime(ct.CreatedAt), ct.CreatedBy)
	if err != nil {
		return fmt.Errorf("inserting content: %w", err)
	}
	return nil
}

// ListActiveContent returns the frame's world content in creation order,
// respecting soft deletes.
func (c *Client) ListActiveContent(ctx context.Context, frameID string) ([]store.Content, error) {
	query := `
	SELECT id, frame_id, content_type, name, data, active, created_at, created_by
	FROM content
	WHERE frame_id = ? AND active = 1
	ORDER BY created_at ASC, id ASC
	`
	rows, err := c.db.QueryContext(ctx, query, frameID)
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}
	defer rows.Close()

	var contents []store.Content
	for rows.Next() {
		var ct store.Content
		var dataBytes []byte
		var createdAt string
		if err := rows.Scan(&ct.ID, &ct.FrameID, &ct.Type, &ct.Name, &dataBytes, &ct.Active, &createdAt, &ct.CreatedBy); err != nil {
			return nil, fmt.Errorf("scanning content: %w", err)
		}
		if len(dataBytes) > 0 {
			if err := json.Unmarshal(dataBytes, &ct.Data); err != nil {
				return nil, fmt.Errorf("unmarshaling content data: %w", err)
			}
		}
		if ct.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		contents = append(contents, ct)
	}
	return contents, rows.Err()
}
