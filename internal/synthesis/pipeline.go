// Package synthesis implements the gather → compile → invoke → parse →
// route pipeline that turns a committed submission into a persisted
// narrative beat, world-content record, or skill definition.
package synthesis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"xstream/internal/model"
	"xstream/internal/skill"
	"xstream/internal/store"
)

// Invoker abstracts the model client so tests can stand in a fake.
type Invoker interface {
	Invoke(ctx context.Context, req model.Request) (*model.Reply, error)
}

// Result is the parsed model output; exactly one field is set, matching
// the face that produced it.
type Result struct {
	Narrative string
	Content   *ContentResult
	Skill     *SkillResult
}

// Outcome is what one synthesis invocation returns to the caller.
type Outcome struct {
	Face      store.Face
	Narrative string
	Content   *ContentResult
	Skill     *SkillResult
	Stored    bool
	SolidID   string
	Model     string
	Usage     store.TokenUsage
}

// faceStrategy is the per-face variant of the shared pipeline shape.
// The face tag on the trigger selects one implementation up front.
type faceStrategy interface {
	compile(sc *Context) Prompt
	parse(raw string) (*Result, error)
	route(ctx context.Context, sc *Context, res *Result, reply *model.Reply, informational bool) (*Outcome, error)
}

type Pipeline struct {
	store    store.Store
	gatherer *Gatherer
	model    Invoker
	log      *zap.Logger
}

func NewPipeline(st store.Store, resolver *skill.Resolver, invoker Invoker, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		store:    st,
		gatherer: NewGatherer(st, resolver, log),
		model:    invoker,
		log:      log,
	}
}

// Run executes one synthesis invocation. Every failure is terminal for
// the invocation and tagged with one of the taxonomy sentinels; the
// trigger stays committed and unprocessed, so the caller may resubmit.
func (p *Pipeline) Run(ctx context.Context, liquidID string, informational bool) (*Outcome, error) {
	sc, err := p.gatherer.Gather(ctx, liquidID)
	if err != nil {
		return nil, err
	}

	strat, err := p.strategyFor(sc.Trigger.Face)
	if err != nil {
		return nil, err
	}

	prompt := strat.compile(sc)

	reply, err := p.model.Invoke(ctx, model.Request{
		System:    prompt.System,
		User:      prompt.User,
		MaxTokens: prompt.MaxTokens,
	})
	if err != nil {
		return nil, tag(ErrUpstream, err)
	}

	res, err := strat.parse(reply.Text)
	if err != nil {
		return nil, tag(ErrParse, err)
	}

	outcome, err := strat.route(ctx, sc, res, reply, informational)
	if err != nil {
		return nil, err
	}

	p.log.Info("synthesis complete",
		zap.String("face", string(sc.Trigger.Face)),
		zap.String("frame_id", sc.Frame.ID),
		zap.String("trigger_id", sc.Trigger.ID),
		zap.Bool("stored", outcome.Stored),
		zap.Int("input_tokens", outcome.Usage.Input),
		zap.Int("output_tokens", outcome.Usage.Output))

	return outcome, nil
}

func (p *Pipeline) strategyFor(face store.Face) (faceStrategy, error) {
	switch face {
	case store.FacePlayer:
		return playerFace{p}, nil
	case store.FaceAuthor:
		return authorFace{p}, nil
	case store.FaceDesigner:
		return designerFace{p}, nil
	}
	return nil, fmt.Errorf("no synthesis strategy for face %q", face)
}

// markProcessed flags the routed submissions. Submissions are retained
// indefinitely as an audit trail; a flag failure after a successful
// route is logged, not surfaced, so the stored result stands.
func (p *Pipeline) markProcessed(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := p.store.MarkLiquidProcessed(ctx, ids); err != nil {
		p.log.Warn("marking submissions processed failed", zap.Strings("ids", ids), zap.Error(err))
		return
	}
	p.log.Info("submissions marked processed", zap.Strings("ids", ids))
}
