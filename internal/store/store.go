package store

import "context"

// Store is the persistence boundary shared by the postgres and sqlite
// backends. Reads that find nothing return (nil, nil) for single rows and
// empty slices for lists; callers decide whether a miss is fatal.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	EnsureUser(ctx context.Context, u User) error

	CreateFrame(ctx context.Context, f Frame) error
	GetFrame(ctx context.Context, id string) (*Frame, error)
	ListFrames(ctx context.Context) ([]Frame, error)

	// UpsertLiquid inserts the submission, replacing the user's existing
	// uncommitted submission in the frame if one exists.
	UpsertLiquid(ctx context.Context, l Liquid) (*Liquid, error)
	GetLiquid(ctx context.Context, id string) (*Liquid, error)
	ListFrameLiquid(ctx context.Context, frameID string) ([]Liquid, error)
	CommitLiquid(ctx context.Context, id string) error
	MarkLiquidProcessed(ctx context.Context, ids []string) error

	InsertContent(ctx context.Context, c Content) error
	ListActiveContent(ctx context.Context, frameID string) ([]Content, error)

	InsertSolid(ctx context.Context, s Solid) error
	ListRecentSolid(ctx context.Context, frameID string, limit int) ([]Solid, error)

	CreatePackage(ctx context.Context, p SkillPackage) error
	LinkFramePackage(ctx context.Context, frameID, packageID string, priority int) error
	AddSkill(ctx context.Context, s Skill) error
	ListPlatformSkills(ctx context.Context, face Face) ([]Skill, error)
	ListFramePackages(ctx context.Context, frameID string) ([]SkillPackage, error)
	ListUserSkills(ctx context.Context, userID string, face Face) ([]Skill, error)

	// GetOrCreateFramePackage returns the frame's custom skill package,
	// creating and linking it on first use. Concurrent first calls must
	// converge on a single package.
	GetOrCreateFramePackage(ctx context.Context, frameID, userID string) (string, error)

	// CreateContentWithAudit and CreateSkillWithAudit persist a routed
	// result and its audit row in one transaction.
	CreateContentWithAudit(ctx context.Context, c Content, audit Solid) error
	CreateSkillWithAudit(ctx context.Context, s Skill, audit Solid) error
}
