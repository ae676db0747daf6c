package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"xstream/internal/store"
)

// framePackagePriority places a frame's lazily created custom package
// after the platform layer and any pre-linked shared packages.
const framePackagePriority = 100

func (c *Client) CreatePackage(ctx context.Context, p store.SkillPackage) error {
	query := `
	INSERT INTO skill_packages (id, name, level, frame_id, created_by)
	VALUES (?, ?, ?, ?, ?)
	`
	_, err := c.db.ExecContext(ctx, query, p.ID, p.Name, p.Level, nullable(p.FrameID), nullable(p.CreatedBy))
	if err != nil {
		return fmt.Errorf("creating skill package: %w", err)
	}
	return nil
}

func (c *Client) LinkFramePackage(ctx context.Context, frameID, packageID string, priority int) error {
	query := `
	INSERT INTO frame_packages (frame_id, package_id, priority)
	VALUES (?, ?, ?)
	ON CONFLICT (frame_id, package_id) DO UPDATE SET priority = excluded.priority
	`
	if _, err := c.db.ExecContext(ctx, query, frameID, packageID, priority); err != nil {
		return fmt.Errorf("linking frame package: %w", err)
	}
	return nil
}

func (c *Client) AddSkill(ctx context.Context, s store.Skill) error {
	return insertSkill(ctx, c.db, s)
}

func insertSkill(ctx context.Context, db execer, s store.Skill) error {
	appliesJSON, err := json.Marshal(s.AppliesTo)
	if err != nil {
		return fmt.Errorf("marshaling applies_to: %w", err)
	}
	query := `
	INSERT INTO skills (id, package_id, name, category, applies_to, content)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := db.ExecContext(ctx, query, s.ID, s.PackageID, s.Name, s.Category, appliesJSON, s.Content); err != nil {
		return fmt.Errorf("inserting skill: %w", err)
	}
	return nil
}

func (c *Client) ListPlatformSkills(ctx context.Context, face store.Face) ([]store.Skill, error) {
	query := `
	SELECT s.id, s.package_id, s.name, s.category, s.applies_to, s.content, p.level
	FROM skills s
	JOIN skill_packages p ON s.package_id = p.id
	WHERE p.level = 'platform'
	ORDER BY s.name ASC
	`
	skills, err := c.querySkills(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing platform skills: %w", err)
	}
	return filterByFace(skills, face), nil
}

func (c *Client) ListUserSkills(ctx context.Context, userID string, face store.Face) ([]store.Skill, error) {
	query := `
	SELECT s.id, s.package_id, s.name, s.category, s.applies_to, s.content, p.level
	FROM skills s
	JOIN skill_packages p ON s.package_id = p.id
	WHERE p.level = 'user' AND p.created_by = ?
	ORDER BY s.name ASC
	`
	skills, err := c.querySkills(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing user skills: %w", err)
	}
	return filterByFace(skills, face), nil
}

// ListFramePackages returns the frame's linked packages in ascending
// link priority, each populated with its skills.
func (c *Client) ListFramePackages(ctx context.Context, frameID string) ([]store.SkillPackage, error) {
	query := `
	SELECT p.id, p.name, p.level, COALESCE(p.frame_id, ''), COALESCE(p.created_by, ''), fp.priority
	FROM frame_packages fp
	JOIN skill_packages p ON fp.package_id = p.id
	WHERE fp.frame_id = ?
	ORDER BY fp.priority ASC, p.id ASC
	`
	rows, err := c.db.QueryContext(ctx, query, frameID)
	if err != nil {
		return nil, fmt.Errorf("listing frame packages: %w", err)
	}
	defer rows.Close()

	var packages []store.SkillPackage
	for rows.Next() {
		var p store.SkillPackage
		if err := rows.Scan(&p.ID, &p.Name, &p.Level, &p.FrameID, &p.CreatedBy, &p.Priority); err != nil {
			return nil, fmt.Errorf("scanning skill package: %w", err)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range packages {
		skills, err := c.querySkills(ctx, `
		SELECT s.id, s.package_id, s.name, s.category, s.applies_to, s.content, p.level
		FROM skills s
		JOIN skill_packages p ON s.package_id = p.id
		WHERE s.package_id = ?
		ORDER BY s.name ASC
		`, packages[i].ID)
		if err != nil {
			return nil, fmt.Errorf("listing package skills: %w", err)
		}
		packages[i].Skills = skills
	}
	return packages, nil
}

// GetOrCreateFramePackage relies on the partial unique index over
// frame-level packages: concurrent first designers race on the insert,
// one wins, and both read back the same package id.
func (c *Client) GetOrCreateFramePackage(ctx context.Context, frameID, userID string) (string, error) {
	insert := `
	INSERT INTO skill_packages (id, name, level, frame_id, created_by)
	VALUES (?, ?, 'frame', ?, ?)
	ON CONFLICT (frame_id) WHERE level = 'frame' DO NOTHING
	`
	if _, err := c.db.ExecContext(ctx, insert, uuid.NewString(), "frame custom skills", frameID, userID); err != nil {
		return "", fmt.Errorf("creating frame package: %w", err)
	}

	var packageID string
	err := c.db.QueryRowContext(ctx,
		`SELECT id FROM skill_packages WHERE level = 'frame' AND frame_id = ?`, frameID).Scan(&packageID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("frame package vanished after upsert")
	}
	if err != nil {
		return "", fmt.Errorf("reading frame package: %w", err)
	}

	if err := c.LinkFramePackage(ctx, frameID, packageID, framePackagePriority); err != nil {
		return "", err
	}
	return packageID, nil
}

func (c *Client) querySkills(ctx context.Context, query string, args ...any) ([]store.Skill, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []store.Skill
	for rows.Next() {
		var s store.Skill
		var appliesJSON []byte
		if err := rows.Scan(&s.ID, &s.PackageID, &s.Name, &s.Category, &appliesJSON, &s.Content, &s.Level); err != nil {
			return nil, fmt.Errorf("scanning skill: %w", err)
		}
		if err := json.Unmarshal(appliesJSON, &s.AppliesTo); err != nil {
			return nil, fmt.Errorf("unmarshaling applies_to: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

func filterByFace(skills []store.Skill, face store.Face) []store.Skill {
	var out []store.Skill
	for _, s := range skills {
		if s.AppliesToFace(face) {
			out = append(out, s)
		}
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
