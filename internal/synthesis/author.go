package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"xstream/internal/model"
	"xstream/internal/store"
)

const authorSystemPrompt = `You are the world-content author for a shared story frame. Transform the creation request into exactly one typed content record.

Allowed types: location, npc, item, faction, event, lore.

Output strictly one JSON object, nothing else, with these fields:
- "type": one of the allowed types
- "name": a short evocative name
- "description": one or two sentences
- further type-specific detail fields (for a location: "atmosphere", "notable_features"; for an npc: "role", "demeanor"; for an item: "properties"; for a faction: "goals", "reputation"; for an event: "consequences"; for lore: "significance")

Stay coherent with the established world content supplied in context; do not contradict or duplicate it.`

// ContentResult is the parsed author output.
type ContentResult struct {
	Type store.ContentType
	Name string
	Data map[string]any
}

// authorFace turns a creation request into a world-content record plus
// an audit row.
type authorFace struct {
	p *Pipeline
}

func (f authorFace) compile(sc *Context) Prompt {
	var user strings.Builder
	worldContentSection(&user, sc)
	fmt.Fprintf(&user, "## Creation request\n\n%s\n", strings.TrimSpace(sc.Trigger.Content))

	return Prompt{
		System:    authorSystemPrompt + skillSection(sc),
		User:      user.String(),
		MaxTokens: authorMaxTokens,
	}
}

// parse extracts the JSON object from the raw text, tolerating a fenced
// code block around it.
func (f authorFace) parse(raw string) (*Result, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil, fmt.Errorf("decoding content JSON: %w", err)
	}

	contentType, _ := fields["type"].(string)
	if contentType == "" {
		return nil, fmt.Errorf("content JSON missing type")
	}
	if !store.ValidContentType(store.ContentType(contentType)) {
		return nil, fmt.Errorf("unknown content type %q", contentType)
	}
	name, _ := fields["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("content JSON missing name")
	}

	data := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "type" || k == "name" {
			continue
		}
		data[k] = v
	}

	return &Result{Content: &ContentResult{
		Type: store.ContentType(contentType),
		Name: name,
		Data: data,
	}}, nil
}

func (f authorFace) route(ctx context.Context, sc *Context, res *Result, reply *model.Reply, informational bool) (*Outcome, error) {
	if informational {
		f.p.log.Info("informational synthesis returned without storage",
			zap.String("frame_id", sc.Frame.ID),
			zap.String("trigger_id", sc.Trigger.ID))
		return &Outcome{
			Face:    store.FaceAuthor,
			Content: res.Content,
			Model:   reply.Model,
			Usage:   reply.Usage,
		}, nil
	}

	// Referential integrity: the authoring user must exist before the
	// content row referencing them is written.
	if err := f.p.store.EnsureUser(ctx, store.User{ID: sc.Trigger.UserID, Name: sc.Trigger.UserName}); err != nil {
		return nil, tag(ErrStorage, fmt.Errorf("ensuring author user: %w", err))
	}

	now := time.Now().UTC()
	content := store.Content{
		ID:        uuid.NewString(),
		FrameID:   sc.Frame.ID,
		Type:      res.Content.Type,
		Name:      res.Content.Name,
		Data:      res.Content.Data,
		Active:    true,
		CreatedAt: now,
		CreatedBy: sc.Trigger.UserID,
	}
	audit := store.Solid{
		ID:               uuid.NewString(),
		FrameID:          sc.Frame.ID,
		Face:             store.FaceAuthor,
		ContentData:      auditContentData(content),
		SourceIDs:        []string{sc.Trigger.ID},
		TriggeringUserID: sc.Trigger.UserID,
		ParticipantIDs:   []string{sc.Trigger.UserID},
		Model:            reply.Model,
		Tokens:           reply.Usage,
		CreatedAt:        now,
	}
	if err := f.p.store.CreateContentWithAudit(ctx, content, audit); err != nil {
		return nil, tag(ErrStorage, err)
	}

	f.p.markProcessed(ctx, []string{sc.Trigger.ID})

	return &Outcome{
		Face:    store.FaceAuthor,
		Content: res.Content,
		Stored:  true,
		SolidID: audit.ID,
		Model:   reply.Model,
		Usage:   reply.Usage,
	}, nil
}

// auditContentData records the routed record in the audit row, keyed to
// the new content id for trail purposes.
func auditContentData(c store.Content) map[string]any {
	return map[string]any{
		"content_id": c.ID,
		"type":       string(c.Type),
		"name":       c.Name,
		"data":       c.Data,
	}
}

// extractJSONObject returns the outermost {...} span, stripping a fenced
// code block if the model wrapped its output in one.
func extractJSONObject(raw string) string {
	text := strings.TrimSpace(raw)
	if idx := strings.Index(text, "```"); idx != -1 {
		rest := text[idx+3:]
		if nl := strings.IndexByte(rest, '\n'); nl != -1 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end != -1 {
			text = rest[:end]
		} else {
			text = rest
		}
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}
