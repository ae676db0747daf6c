package synthesis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"xstream/internal/skill"
	"xstream/internal/store"
)

// recentSolidLimit caps how much narrative history is carried into a
// prompt for continuity.
const recentSolidLimit = 5

// Context is the request-scoped aggregate one synthesis call runs on.
// It is built fresh per invocation and discarded after routing.
type Context struct {
	Trigger      store.Liquid
	AllLiquid    []store.Liquid
	OtherLiquid  []store.Liquid
	WorldContent []store.Content
	RecentSolid  []store.Solid // chronological, oldest first
	Frame        store.Frame
	Skills       skill.Set
}

type Gatherer struct {
	store  store.Store
	skills *skill.Resolver
	log    *zap.Logger
}

func NewGatherer(st store.Store, resolver *skill.Resolver, log *zap.Logger) *Gatherer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gatherer{store: st, skills: resolver, log: log}
}

// Gather collects everything a synthesis call needs, keyed off the
// triggering submission. A missing trigger or frame is fatal; every
// frame-scoped list read degrades to an empty collection.
func (g *Gatherer) Gather(ctx context.Context, liquidID string) (*Context, error) {
	trigger, err := g.store.GetLiquid(ctx, liquidID)
	if err != nil {
		return nil, tag(ErrStorage, fmt.Errorf("fetching submission: %w", err))
	}
	if trigger == nil {
		return nil, tag(ErrNotFound, fmt.Errorf("submission %s", liquidID))
	}
	if trigger.FrameID == "" {
		return nil, tag(ErrNotFound, fmt.Errorf("submission %s has no frame", liquidID))
	}

	frame, err := g.store.GetFrame(ctx, trigger.FrameID)
	if err != nil {
		return nil, tag(ErrStorage, fmt.Errorf("fetching frame: %w", err))
	}
	if frame == nil {
		return nil, tag(ErrNotFound, fmt.Errorf("frame %s", trigger.FrameID))
	}

	allLiquid, err := g.store.ListFrameLiquid(ctx, trigger.FrameID)
	if err != nil {
		return nil, tag(ErrStorage, fmt.Errorf("listing frame submissions: %w", err))
	}
	var otherLiquid []store.Liquid
	for _, l := range allLiquid {
		if l.UserID != trigger.UserID {
			otherLiquid = append(otherLiquid, l)
		}
	}

	content, err := g.store.ListActiveContent(ctx, trigger.FrameID)
	if err != nil {
		return nil, tag(ErrStorage, fmt.Errorf("listing world content: %w", err))
	}

	recent, err := g.store.ListRecentSolid(ctx, trigger.FrameID, recentSolidLimit)
	if err != nil {
		return nil, tag(ErrStorage, fmt.Errorf("listing recent narrative: %w", err))
	}
	reverseSolid(recent)

	skills, err := g.skills.Resolve(ctx, trigger.Face, trigger.FrameID, trigger.UserID)
	if err != nil {
		return nil, tag(ErrStorage, fmt.Errorf("resolving skills: %w", err))
	}

	return &Context{
		Trigger:      *trigger,
		AllLiquid:    allLiquid,
		OtherLiquid:  otherLiquid,
		WorldContent: content,
		RecentSolid:  recent,
		Frame:        *frame,
		Skills:       skills,
	}, nil
}

// reverseSolid flips the newest-first store ordering into chronological
// order for prompt continuity.
func reverseSolid(solids []store.Solid) {
	for i, j := 0, len(solids)-1; i < j; i, j = i+1, j-1 {
		solids[i], solids[j] = solids[j], solids[i]
	}
}
