package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"xstream/internal/model"
	"xstream/internal/store"
)

const designerSystemPrompt = `You are the skill designer for a shared story frame. Transform the request into exactly one skill definition.

Allowed categories: format, gathering, aperture, weighting, routing, constraint, parsing, display. You must NEVER create a skill with category "guard"; guard skills are platform-reserved.

Output exactly one block in this format and nothing else:

SKILL_CREATE
name: <kebab-case-skill-name>
category: <one allowed category>
applies_to: <comma-separated faces: player, author, designer>
content: |
  <the skill text, every line indented by two spaces>`

// SkillResult is the parsed designer output.
type SkillResult struct {
	Name      string
	Category  store.SkillCategory
	AppliesTo []store.Face
	Content   string
}

// designerFace turns a request into a skill stored in the frame's custom
// package, plus an audit row.
type designerFace struct {
	p *Pipeline
}

func (f designerFace) compile(sc *Context) Prompt {
	var user strings.Builder
	if skills := sc.Skills.InOrder(); len(skills) > 0 {
		user.WriteString("## Existing active skills\n\n")
		for _, sk := range skills {
			fmt.Fprintf(&user, "- %s (%s)\n", sk.Name, sk.Category)
		}
		user.WriteString("\n")
	}
	fmt.Fprintf(&user, "## Skill request\n\n%s\n", strings.TrimSpace(sc.Trigger.Content))

	return Prompt{
		System:    designerSystemPrompt + skillSection(sc),
		User:      user.String(),
		MaxTokens: designerMaxTokens,
	}
}

func (f designerFace) parse(raw string) (*Result, error) {
	res, err := parseSkillBlock(raw)
	if err != nil {
		return nil, err
	}
	return &Result{Skill: res}, nil
}

func (f designerFace) route(ctx context.Context, sc *Context, res *Result, reply *model.Reply, informational bool) (*Outcome, error) {
	if informational {
		f.p.log.Info("informational synthesis returned without storage",
			zap.String("frame_id", sc.Frame.ID),
			zap.String("trigger_id", sc.Trigger.ID))
		return &Outcome{
			Face:  store.FaceDesigner,
			Skill: res.Skill,
			Model: reply.Model,
			Usage: reply.Usage,
		}, nil
	}

	packageID, err := f.p.store.GetOrCreateFramePackage(ctx, sc.Frame.ID, sc.Trigger.UserID)
	if err != nil {
		return nil, tag(ErrStorage, fmt.Errorf("resolving frame package: %w", err))
	}

	now := time.Now().UTC()
	sk := store.Skill{
		ID:        uuid.NewString(),
		PackageID: packageID,
		Name:      res.Skill.Name,
		Category:  res.Skill.Category,
		AppliesTo: res.Skill.AppliesTo,
		Content:   res.Skill.Content,
		Level:     store.LevelFrame,
	}
	audit := store.Solid{
		ID:               uuid.NewString(),
		FrameID:          sc.Frame.ID,
		Face:             store.FaceDesigner,
		SkillData:        auditSkillData(sk),
		SourceIDs:        []string{sc.Trigger.ID},
		TriggeringUserID: sc.Trigger.UserID,
		ParticipantIDs:   []string{sc.Trigger.UserID},
		Model:            reply.Model,
		Tokens:           reply.Usage,
		CreatedAt:        now,
	}
	if err := f.p.store.CreateSkillWithAudit(ctx, sk, audit); err != nil {
		return nil, tag(ErrStorage, err)
	}

	f.p.markProcessed(ctx, []string{sc.Trigger.ID})

	return &Outcome{
		Face:    store.FaceDesigner,
		Skill:   res.Skill,
		Stored:  true,
		SolidID: audit.ID,
		Model:   reply.Model,
		Usage:   reply.Usage,
	}, nil
}

func auditSkillData(sk store.Skill) map[string]any {
	faces := make([]string, 0, len(sk.AppliesTo))
	for _, f := range sk.AppliesTo {
		faces = append(faces, string(f))
	}
	return map[string]any{
		"skill_id":   sk.ID,
		"name":       sk.Name,
		"category":   string(sk.Category),
		"applies_to": faces,
	}
}

// formatSkillBlock renders a SkillResult in the exact block format the
// designer prompt specifies. The parser accepts its output unchanged.
func formatSkillBlock(res SkillResult) string {
	faces := make([]string, 0, len(res.AppliesTo))
	for _, f := range res.AppliesTo {
		faces = append(faces, string(f))
	}
	var b strings.Builder
	b.WriteString("SKILL_CREATE\n")
	fmt.Fprintf(&b, "name: %s\n", res.Name)
	fmt.Fprintf(&b, "category: %s\n", res.Category)
	fmt.Fprintf(&b, "applies_to: %s\n", strings.Join(faces, ", "))
	b.WriteString("content: |\n")
	for _, line := range strings.Split(strings.TrimRight(res.Content, "\n"), "\n") {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return b.String()
}

// parseSkillBlock extracts a SKILL_CREATE block by structural line
// matching. It fails if name, category, or content is missing, if the
// category is unknown, or if the category is guard; well-formed guard
// definitions are rejected outright.
func parseSkillBlock(raw string) (*SkillResult, error) {
	lines := strings.Split(raw, "\n")

	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "SKILL_CREATE" {
			start = i + 1
			break
		}
	}
	if start == -1 {
		return nil, fmt.Errorf("no SKILL_CREATE block in model output")
	}

	res := SkillResult{}
	var contentLines []string
	inContent := false
	for _, line := range lines[start:] {
		if inContent {
			if strings.TrimSpace(line) == "" {
				contentLines = append(contentLines, "")
				continue
			}
			if strings.HasPrefix(line, "  ") {
				contentLines = append(contentLines, line[2:])
				continue
			}
			break
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "name:"):
			res.Name = strings.TrimSpace(strings.TrimPrefix(trimmed, "name:"))
		case strings.HasPrefix(trimmed, "category:"):
			res.Category = store.SkillCategory(strings.TrimSpace(strings.TrimPrefix(trimmed, "category:")))
		case strings.HasPrefix(trimmed, "applies_to:"):
			faces, err := parseFaceList(strings.TrimSpace(strings.TrimPrefix(trimmed, "applies_to:")))
			if err != nil {
				return nil, err
			}
			res.AppliesTo = faces
		case strings.HasPrefix(trimmed, "content:"):
			inContent = true
		}
	}

	res.Content = strings.TrimRight(strings.Join(contentLines, "\n"), "\n")

	if res.Name == "" {
		return nil, fmt.Errorf("skill block missing name")
	}
	if res.Category == "" {
		return nil, fmt.Errorf("skill block missing category")
	}
	if res.Category == store.CategoryGuard {
		return nil, fmt.Errorf("guard skills cannot be created")
	}
	if !store.ValidCategory(res.Category) {
		return nil, fmt.Errorf("unknown skill category %q", res.Category)
	}
	if res.Content == "" {
		return nil, fmt.Errorf("skill block missing content")
	}
	if len(res.AppliesTo) == 0 {
		res.AppliesTo = []store.Face{store.FacePlayer, store.FaceAuthor, store.FaceDesigner}
	}
	return &res, nil
}

func parseFaceList(value string) ([]store.Face, error) {
	if value == "" {
		return nil, nil
	}
	var faces []store.Face
	for _, part := range strings.Split(value, ",") {
		face := store.Face(strings.TrimSpace(part))
		if face == "" {
			continue
		}
		if !store.ValidFace(face) {
			return nil, fmt.Errorf("unknown face %q in applies_to", face)
		}
		faces = append(faces, face)
	}
	return faces, nil
}
