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

const playerSystemPrompt = `You are the narrative synthesizer for a shared story frame. Multiple players act at once; your job is to weave ALL committed actions from ALL players into one coherent present-tense narrative beat.

Follow the 30/70 rule: give 30% weight to fidelity with established state (world content, recent narrative) and 70% weight to enabling what each player stated they intend to do. Never block an action because it conflicts with another player's action; stage the conflict as interesting interplay instead.

Output prose only. No headings, no lists, no meta-commentary, no questions back to the players.`

// playerFace synthesizes committed actions into a narrative beat and
// appends it to the frame's narrative log.
type playerFace struct {
	p *Pipeline
}

func (f playerFace) compile(sc *Context) Prompt {
	var user strings.Builder
	recentNarrativeSection(&user, sc)
	worldContentSection(&user, sc)
	playerActionsSection(&user, sc)
	triggerSection(&user, sc)

	return Prompt{
		System:    playerSystemPrompt + skillSection(sc),
		User:      user.String(),
		MaxTokens: playerMaxTokens,
	}
}

// The raw text is the finished narrative; nothing to validate.
func (f playerFace) parse(raw string) (*Result, error) {
	return &Result{Narrative: raw}, nil
}

func (f playerFace) route(ctx context.Context, sc *Context, res *Result, reply *model.Reply, informational bool) (*Outcome, error) {
	participants, sources := playerParticipants(sc)

	outcome := &Outcome{
		Face:      store.FacePlayer,
		Narrative: res.Narrative,
		Model:     reply.Model,
		Usage:     reply.Usage,
	}

	// Informational mode is a deliberate bypass: the narrative goes back
	// to the caller and the store is left untouched.
	if informational {
		f.p.log.Info("informational synthesis returned without storage",
			zap.String("frame_id", sc.Frame.ID),
			zap.String("trigger_id", sc.Trigger.ID))
		return outcome, nil
	}

	solid := store.Solid{
		ID:               uuid.NewString(),
		FrameID:          sc.Frame.ID,
		Face:             store.FacePlayer,
		Narrative:        res.Narrative,
		SourceIDs:        sources,
		TriggeringUserID: sc.Trigger.UserID,
		ParticipantIDs:   participants,
		Model:            reply.Model,
		Tokens:           reply.Usage,
		CreatedAt:        time.Now().UTC(),
	}
	if err := f.p.store.InsertSolid(ctx, solid); err != nil {
		return nil, tag(ErrStorage, fmt.Errorf("inserting narrative: %w", err))
	}

	f.p.markProcessed(ctx, sources)

	outcome.Stored = true
	outcome.SolidID = solid.ID
	return outcome, nil
}

// playerParticipants computes the distinct user ids across every
// player-face submission in the frame and the ids of the committed ones
// that feed the narrative.
func playerParticipants(sc *Context) (participants, sources []string) {
	seen := make(map[string]struct{})
	for _, l := range sc.AllLiquid {
		if l.Face != store.FacePlayer {
			continue
		}
		if _, ok := seen[l.UserID]; !ok {
			seen[l.UserID] = struct{}{}
			participants = append(participants, l.UserID)
		}
		if l.Committed {
			sources = append(sources, l.ID)
		}
	}
	return participants, sources
}
