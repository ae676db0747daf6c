package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type SynthesizeInput struct {
	LiquidID      string `json:"liquid_id" jsonschema:"id of the committed submission to synthesize"`
	Informational bool   `json:"informational,omitempty" jsonschema:"return the narrative without storing it"`
}

type SynthesizeOutput struct {
	Face      string         `json:"face"`
	Narrative string         `json:"narrative,omitempty"`
	Content   map[string]any `json:"content,omitempty"`
	Skill     map[string]any `json:"skill,omitempty"`
	Stored    bool           `json:"stored"`
	SolidID   string         `json:"solid_id,omitempty"`
}

type ListFramesInput struct{}

type FrameOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListFramesOutput struct {
	Frames []FrameOutput `json:"frames"`
}

type ListContentInput struct {
	FrameID string `json:"frame_id" jsonschema:"frame to list world content for"`
}

type ContentOutput struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

type ListContentOutput struct {
	Content []ContentOutput `json:"content"`
}

type RecentNarrativeInput struct {
	FrameID string `json:"frame_id" jsonschema:"frame to read narrative from"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum entries, newest first"`
}

type NarrativeOutput struct {
	ID        string `json:"id"`
	Face      string `json:"face"`
	Narrative string `json:"narrative,omitempty"`
	CreatedAt string `json:"created_at"`
}

type RecentNarrativeOutput struct {
	Entries []NarrativeOutput `json:"entries"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "synthesize",
		Description: "Run the synthesis pipeline on a committed submission",
	}, s.handleSynthesize)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_frames",
		Description: "List all frames",
	}, s.handleListFrames)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_content",
		Description: "List active world content in a frame",
	}, s.handleListContent)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "recent_narrative",
		Description: "Read the most recent narrative entries in a frame",
	}, s.handleRecentNarrative)
}

func (s *Server) handleSynthesize(ctx context.Context, req *sdk.CallToolRequest, input SynthesizeInput) (*sdk.CallToolResult, SynthesizeOutput, error) {
	if input.LiquidID == "" {
		return nil, SynthesizeOutput{}, fmt.Errorf("liquid_id is required")
	}
	outcome, err := s.pipeline.Run(ctx, input.LiquidID, input.Informational)
	if err != nil {
		return nil, SynthesizeOutput{}, err
	}

	out := SynthesizeOutput{
		Face:      string(outcome.Face),
		Narrative: outcome.Narrative,
		Stored:    outcome.Stored,
		SolidID:   outcome.SolidID,
	}
	if outcome.Content != nil {
		out.Content = map[string]any{
			"type": string(outcome.Content.Type),
			"name": outcome.Content.Name,
			"data": outcome.Content.Data,
		}
	}
	if outcome.Skill != nil {
		out.Skill = map[string]any{
			"name":     outcome.Skill.Name,
			"category": string(outcome.Skill.Category),
			"content":  outcome.Skill.Content,
		}
	}
	return nil, out, nil
}

func (s *Server) handleListFrames(ctx context.Context, req *sdk.CallToolRequest, input ListFramesInput) (*sdk.CallToolResult, ListFramesOutput, error) {
	frames, err := s.db.ListFrames(ctx)
	if err != nil {
		return nil, ListFramesOutput{}, err
	}
	output := make([]FrameOutput, 0, len(frames))
	for _, f := range frames {
		output = append(output, FrameOutput{ID: f.ID, Name: f.Name})
	}
	return nil, ListFramesOutput{Frames: output}, nil
}

func (s *Server) handleListContent(ctx context.Context, req *sdk.CallToolRequest, input ListContentInput) (*sdk.CallToolResult, ListContentOutput, error) {
	if input.FrameID == "" {
		return nil, ListContentOutput{}, fmt.Errorf("frame_id is required")
	}
	contents, err := s.db.ListActiveContent(ctx, input.FrameID)
	if err != nil {
		return nil, ListContentOutput{}, err
	}
	output := make([]ContentOutput, 0, len(contents))
	for _, c := range contents {
		output = append(output, ContentOutput{
			ID:   c.ID,
			Type: string(c.Type),
			Name: c.Name,
			Data: c.Data,
		})
	}
	return nil, ListContentOutput{Content: output}, nil
}

func (s *Server) handleRecentNarrative(ctx context.Context, req *sdk.CallToolRequest, input RecentNarrativeInput) (*sdk.CallToolResult, RecentNarrativeOutput, error) {
	if input.FrameID == "" {
		return nil, RecentNarrativeOutput{}, fmt.Errorf("frame_id is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}
	solids, err := s.db.ListRecentSolid(ctx, input.FrameID, limit)
	if err != nil {
		return nil, RecentNarrativeOutput{}, err
	}
	output := make([]NarrativeOutput, 0, len(solids))
	for _, entry := range solids {
		output = append(output, NarrativeOutput{
			ID:        entry.ID,
			Face:      string(entry.Face),
			Narrative: entry.Narrative,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, RecentNarrativeOutput{Entries: output}, nil
}
