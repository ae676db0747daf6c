package store

import "time"

type Face string

const (
	FacePlayer   Face = "player"
	FaceAuthor   Face = "author"
	FaceDesigner Face = "designer"
)

func ValidFace(f Face) bool {
	switch f {
	case FacePlayer, FaceAuthor, FaceDesigner:
		return true
	}
	return false
}

type ContentType string

const (
	ContentLocation ContentType = "location"
	ContentNPC      ContentType = "npc"
	ContentItem     ContentType = "item"
	ContentFaction  ContentType = "faction"
	ContentEvent    ContentType = "event"
	ContentLore     ContentType = "lore"
)

func ValidContentType(t ContentType) bool {
	switch t {
	case ContentLocation, ContentNPC, ContentItem, ContentFaction, ContentEvent, ContentLore:
		return true
	}
	return false
}

type SkillCategory string

const (
	CategoryFormat     SkillCategory = "format"
	CategoryGuard      SkillCategory = "guard"
	CategoryGathering  SkillCategory = "gathering"
	CategoryAperture   SkillCategory = "aperture"
	CategoryWeighting  SkillCategory = "weighting"
	CategoryRouting    SkillCategory = "routing"
	CategoryConstraint SkillCategory = "constraint"
	CategoryParsing    SkillCategory = "parsing"
	CategoryDisplay    SkillCategory = "display"
)

// SkillCategories lists every category in prompt-assembly order: guard
// rails first, then formatting, then the behavioral categories.
func SkillCategories() []SkillCategory {
	return []SkillCategory{
		CategoryGuard,
		CategoryFormat,
		CategoryGathering,
		CategoryAperture,
		CategoryWeighting,
		CategoryRouting,
		CategoryConstraint,
		CategoryParsing,
		CategoryDisplay,
	}
}

func ValidCategory(c SkillCategory) bool {
	for _, known := range SkillCategories() {
		if c == known {
			return true
		}
	}
	return false
}

type PackageLevel string

const (
	LevelPlatform PackageLevel = "platform"
	LevelFrame    PackageLevel = "frame"
	LevelUser     PackageLevel = "user"
)

type User struct {
	ID   string
	Name string
}

// Frame is the shared context scoping submissions, narrative, and content.
// The pipeline reads frames but never mutates them.
type Frame struct {
	ID            string
	Name          string
	PscaleFloor   int
	PscaleCeiling int
	CreatedAt     time.Time
}

// Liquid is a user's editable text contribution. One uncommitted row per
// user per frame is maintained by upsert; committed rows accumulate until
// a synthesis call marks them processed. Rows are never deleted.
type Liquid struct {
	ID        string
	FrameID   string
	UserID    string
	UserName  string
	Face      Face
	Content   string
	Committed bool
	Processed bool
	CreatedAt time.Time
}

// Content is an established world-content record created by the author
// route. active=false is a soft delete and filters the row out of reads.
type Content struct {
	ID        string
	FrameID   string
	Type      ContentType
	Name      string
	Data      map[string]any
	Active    bool
	CreatedAt time.Time
	CreatedBy string
}

type TokenUsage struct {
	Input  int
	Output int
}

// Solid is the append-only audit and narrative log: one row per synthesis
// invocation regardless of face.
type Solid struct {
	ID               string
	FrameID          string
	Face             Face
	Narrative        string
	ContentData      map[string]any
	SkillData        map[string]any
	SourceIDs        []string
	TriggeringUserID string
	ParticipantIDs   []string
	Model            string
	Tokens           TokenUsage
	CreatedAt        time.Time
}

// Skill is a named configuration fragment that alters prompt compilation.
// Level is denormalized from the owning package on read.
type Skill struct {
	ID        string
	PackageID string
	Name      string
	Category  SkillCategory
	AppliesTo []Face
	Content   string
	Level     PackageLevel
}

func (s Skill) AppliesToFace(f Face) bool {
	for _, face := range s.AppliesTo {
		if face == f {
			return true
		}
	}
	return false
}

type SkillPackage struct {
	ID        string
	Name      string
	Level     PackageLevel
	FrameID   string
	CreatedBy string
	Priority  int
	Skills    []Skill
}
