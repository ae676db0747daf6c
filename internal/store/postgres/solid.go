package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"xstream/internal/store"
)

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (c *Client) InsertSolid(ctx context.Context, s store.Solid) error {
	return insertSolid(ctx, c.pool, s)
}

func insertSolid(ctx context.Context, db execer, s store.Solid) error {
	contentData, err := marshalNullable(s.ContentData)
	if err != nil {
		return fmt.Errorf("marshaling content data: %w", err)
	}
	skillData, err := marshalNullable(s.SkillData)
	if err != nil {
		return fmt.Errorf("marshaling skill data: %w", err)
	}

	query := `
	INSERT INTO solid (id, frame_id, face, narrative, content_data, skill_data, source_ids,
		triggering_user_id, participant_ids, model, input_tokens, output_tokens, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = db.Exec(ctx, query, s.ID, s.FrameID, s.Face, s.Narrative, contentData, skillData,
		orEmpty(s.SourceIDs), s.TriggeringUserID, orEmpty(s.ParticipantIDs), s.Model,
		s.Tokens.Input, s.Tokens.Output, timeOrNow(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting audit row: %w", err)
	}
	return nil
}

func (c *Client) ListRecentSolid(ctx context.Context, frameID string, limit int) ([]store.Solid, error) {
	query := `
	SELECT id, frame_id, face, narrative, content_data, skill_data, source_ids,
		triggering_user_id, participant_ids, model, input_tokens, output_tokens, created_at
	FROM solid
	WHERE frame_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2
	`
	rows, err := c.pool.Query(ctx, query, frameID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent narrative: %w", err)
	}
	defer rows.Close()

	var solids []store.Solid
	for rows.Next() {
		var s store.Solid
		var contentData, skillData []byte
		err := rows.Scan(&s.ID, &s.FrameID, &s.Face, &s.Narrative, &contentData, &skillData,
			&s.SourceIDs, &s.TriggeringUserID, &s.ParticipantIDs, &s.Model,
			&s.Tokens.Input, &s.Tokens.Output, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		if len(contentData) > 0 {
			if err := json.Unmarshal(contentData, &s.ContentData); err != nil {
				return nil, fmt.Errorf("unmarshaling content data: %w", err)
			}
		}
		if len(skillData) > 0 {
			if err := json.Unmarshal(skillData, &s.SkillData); err != nil {
				return nil, fmt.Errorf("unmarshaling skill data: %w", err)
			}
		}
		solids = append(solids, s)
	}
	return solids, rows.Err()
}

func (c *Client) CreateContentWithAudit(ctx context.Context, ct store.Content, audit store.Solid) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertContent(ctx, tx, ct); err != nil {
		return err
	}
	if err := insertSolid(ctx, tx, audit); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing content transaction: %w", err)
	}
	return nil
}

func (c *Client) CreateSkillWithAudit(ctx context.Context, sk store.Skill, audit store.Solid) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertSkill(ctx, tx, sk); err != nil {
		return err
	}
	if err := insertSolid(ctx, tx, audit); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing skill transaction: %w", err)
	}
	return nil
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func marshalNullable(data map[string]any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	return json.Marshal(data)
}
