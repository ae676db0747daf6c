package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"xstream/internal/store"
)

func (c *Client) InsertSolid(ctx context.Context, s store.Solid) error {
	return insertSolid(ctx, c.db, s)
}

func insertSolid(ctx context.Context, db execer, s store.Solid) error {
	sourceJSON, err := json.Marshal(orEmpty(s.SourceIDs))
	if err != nil {
		return fmt.Errorf("marshaling source ids: %w", err)
	}
	participantJSON, err := json.Marshal(orEmpty(s.ParticipantIDs))
	if err != nil {
		return fmt.Errorf("marshaling participant ids: %w", err)
	}
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
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query, s.ID, s.FrameID, s.Face, s.Narrative, contentData, skillData,
		sourceJSON, s.TriggeringUserID, participantJSON, s.Model, s.Tokens.Input, s.Tokens.Output, formatTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting audit row: %w", err)
	}
	return nil
}

// ListRecentSolid returns the newest rows first; callers reverse for
// chronological prompts.
func (c *Client) ListRecentSolid(ctx context.Context, frameID string, limit int) ([]store.Solid, error) {
	query := `
	SELECT id, frame_id, face, narrative, content_data, skill_data, source_ids,
		triggering_user_id, participant_ids, model, input_tokens, output_tokens, created_at
	FROM solid
	WHERE frame_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`
	rows, err := c.db.QueryContext(ctx, query, frameID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent narrative: %w", err)
	}
	defer rows.Close()

	var solids []store.Solid
	for rows.Next() {
		var s store.Solid
		var contentData, skillData []byte
		var sourceJSON, participantJSON []byte
		var createdAt string
		err := rows.Scan(&s.ID, &s.FrameID, &s.Face, &s.Narrative, &contentData, &skillData,
			&sourceJSON, &s.TriggeringUserID, &participantJSON, &s.Model, &s.Tokens.Input, &s.Tokens.Output, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		if err := json.Unmarshal(sourceJSON, &s.SourceIDs); err != nil {
			return nil, fmt.Errorf("unmarshaling source ids: %w", err)
		}
		if err := json.Unmarshal(participantJSON, &s.ParticipantIDs); err != nil {
			return nil, fmt.Errorf("unmarshaling participant ids: %w", err)
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
		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		solids = append(solids, s)
	}
	return solids, rows.Err()
}

func (c *Client) CreateContentWithAudit(ctx context.Context, ct store.Content, audit store.Solid) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertContent(ctx, tx, ct); err != nil {
		return err
	}
	if err := insertSolid(ctx, tx, audit); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing content transaction: %w", err)
	}
	return nil
}

func (c *Client) CreateSkillWithAudit(ctx context.Context, sk store.Skill, audit store.Solid) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertSkill(ctx, tx, sk); err != nil {
		return err
	}
	if err := insertSolid(ctx, tx, audit); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
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
