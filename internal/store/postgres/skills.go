package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"xstream/internal/store"
)

const framePackagePriority = 100

func (c *Client) CreatePackage(ctx context.Context, p store.SkillPackage) error {
	query := `
	INSERT INTO skill_packages (id, name, level, frame_id, created_by)
	VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := c.pool.Exec(ctx, query, p.ID, p.Name, p.Level, nullable(p.FrameID), nullable(p.CreatedBy)); err != nil {
		return fmt.Errorf("creating skill package: %w", err)
	}
	return nil
}

func (c *Client) LinkFramePackage(ctx context.Context, frameID, packageID string, priority int) error {
	query := `
	INSERT INTO frame_packages (frame_id, package_id, priority)
	VALUES ($1, $2, $3)
	ON CONFLICT (frame_id, package_id) DO UPDATE SET priority = EXCLUDED.priority
	`
	if _, err := c.pool.Exec(ctx, query, frameID, packageID, priority); err != nil {
		return fmt.Errorf("linking frame package: %w", err)
	}
	return nil
}

func (c *Client) AddSkill(ctx context.Context, s store.Skill) error {
	return insertSkill(ctx, c.pool, s)
}

func insertSkill(ctx context.Context, db execer, s store.Skill) error {
	query := `
	INSERT INTO skills (id, package_id, name, category, applies_to, content)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := db.Exec(ctx, query, s.ID, s.PackageID, s.Name, s.Category, facesToStrings(s.AppliesTo), s.Content); err != nil {
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
	WHERE p.level = 'user' AND p.created_by = $1
	ORDER BY s.name ASC
	`
	skills, err := c.querySkills(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing user skills: %w", err)
	}
	return filterByFace(skills, face), nil
}

func (c *Client) ListFramePackages(ctx context.Context, frameID string) ([]store.SkillPackage, error) {
	query := `
	SELECT p.id, p.name, p.level, COALESCE(p.frame_id, ''), COALESCE(p.created_by, ''), fp.priority
	FROM frame_packages fp
	JOIN skill_packages p ON fp.package_id = p.id
	WHERE fp.frame_id = $1
	ORDER BY fp.priority ASC, p.id ASC
	`
	rows, err := c.pool.Query(ctx, query, frameID)
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
		WHERE s.package_id = $1
		ORDER BY s.name ASC
		`, packages[i].ID)
		if err != nil {
			return nil, fmt.Errorf("listing package skills: %w", err)
		}
		packages[i].Skills = skills
	}
	return packages, nil
}

func (c *Client) GetOrCreateFramePackage(ctx context.Context, frameID, userID string) (string, error) {
	insert := `
	INSERT INTO skill_packages (id, name, level, frame_id, created_by)
	VALUES ($1, $2, 'frame', $3, $4)
	ON CONFLICT (frame_id) WHERE level = 'frame' DO NOTHING
	`
	if _, err := c.pool.Exec(ctx, insert, uuid.NewString(), "frame custom skills", frameID, userID); err != nil {
		return "", fmt.Errorf("creating frame package: %w", err)
	}

	var packageID string
	err := c.pool.QueryRow(ctx,
		`SELECT id FROM skill_packages WHERE level = 'frame' AND frame_id = $1`, frameID).Scan(&packageID)
	if errors.Is(err, pgx.ErrNoRows) {
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
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []store.Skill
	for rows.Next() {
		var s store.Skill
		var faces []string
		if err := rows.Scan(&s.ID, &s.PackageID, &s.Name, &s.Category, &faces, &s.Content, &s.Level); err != nil {
			return nil, fmt.Errorf("scanning skill: %w", err)
		}
		s.AppliesTo = stringsToFaces(faces)
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

func facesToStrings(faces []store.Face) []string {
	out := make([]string, 0, len(faces))
	for _, f := range faces {
		out = append(out, string(f))
	}
	return out
}

func stringsToFaces(values []string) []store.Face {
	out := make([]store.Face, 0, len(values))
	for _, v := range values {
		out = append(out, store.Face(v))
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
