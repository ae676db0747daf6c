package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"xstream/internal/store"
)

func (c *Client) InsertContent(ctx context.Context, ct store.Content) error {
	return insertContent(ctx, c.pool, ct)
}

func insertContent(ctx context.Context, db execer, ct store.Content) error {
	dataJSON, err := json.Marshal(ct.Data)
	if err != nil {
		return fmt.Errorf("marshaling content data: %w", err)
	}
	query := `
	INSERT INTO content (id, frame_id, content_type, name, data, active, created_at, created_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = db.Exec(ctx, query, ct.ID, ct.FrameID, ct.Type, ct.Name, dataJSON, ct.Active, timeOrNow(ct.CreatedAt), ct.CreatedBy)
	if err != nil {
		return fmt.Errorf("inserting content: %w", err)
	}
	return nil
}

func (c *Client) ListActiveContent(ctx context.Context, frameID string) ([]store.Content, error) {
	query := `
	SELECT id, frame_id, content_type, name, data, active, created_at, created_by
	FROM content
	WHERE frame_id = $1 AND active = TRUE
	ORDER BY created_at ASC, id ASC
	`
	rows, err := c.pool.Query(ctx, query, frameID)
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}
	defer rows.Close()

	var contents []store.Content
	for rows.Next() {
		var ct store.Content
		var dataBytes []byte
		if err := rows.Scan(&ct.ID, &ct.FrameID, &ct.Type, &ct.Name, &dataBytes, &ct.Active, &ct.CreatedAt, &ct.CreatedBy); err != nil {
			return nil, fmt.Errorf("scanning content: %w", err)
		}
		if len(dataBytes) > 0 {
			if err := json.Unmarshal(dataBytes, &ct.Data); err != nil {
				return nil, fmt.Errorf("unmarshaling content data: %w", err)
			}
		}
		contents = append(contents, ct)
	}
	return contents, rows.Err()
}
