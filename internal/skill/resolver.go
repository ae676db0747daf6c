// Package skill resolves the layered skill configuration applied to a
// synthesis call. Platform skills form the base layer; frame-linked
// packages override it in ascending priority order; user skills are
// surfaced for interactive soft-mode but never merged into the active set.
package skill

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"xstream/internal/store"
)

// Source is the slice of the store the resolver reads.
type Source interface {
	ListPlatformSkills(ctx context.Context, face store.Face) ([]store.Skill, error)
	ListFramePackages(ctx context.Context, frameID string) ([]store.SkillPackage, error)
	ListUserSkills(ctx context.Context, userID string, face store.Face) ([]store.Skill, error)
}

// Set is the outcome of resolution: at most one active skill per category,
// plus the user layer carried alongside without being applied.
type Set struct {
	Active    map[store.SkillCategory]store.Skill
	UserLayer []store.Skill
}

// InOrder returns the active skills in the fixed category order used for
// prompt assembly.
func (s Set) InOrder() []store.Skill {
	var out []store.Skill
	for _, cat := range store.SkillCategories() {
		if sk, ok := s.Active[cat]; ok {
			out = append(out, sk)
		}
	}
	return out
}

type Resolver struct {
	src Source
	log *zap.Logger
}

func NewResolver(src Source, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{src: src, log: log}
}

// Resolve loads the platform, frame, and user layers for face and folds
// them into a Set. A failed layer read is logged and treated as an empty
// layer; resolution degrades to fewer overrides rather than failing.
func (r *Resolver) Resolve(ctx context.Context, face store.Face, frameID, userID string) (Set, error) {
	if !store.ValidFace(face) {
		return Set{}, fmt.Errorf("resolving skills: unknown face %q", face)
	}

	platform, err := r.src.ListPlatformSkills(ctx, face)
	if err != nil {
		r.log.Warn("platform skill layer unavailable", zap.String("face", string(face)), zap.Error(err))
		platform = nil
	}

	var frameLayers [][]store.Skill
	if frameID != "" {
		packages, err := r.src.ListFramePackages(ctx, frameID)
		if err != nil {
			r.log.Warn("frame skill layer unavailable", zap.String("frame_id", frameID), zap.Error(err))
		} else {
			for _, pkg := range packages {
				frameLayers = append(frameLayers, pkg.Skills)
			}
		}
	}

	var userLayer []store.Skill
	if userID != "" {
		userLayer, err = r.src.ListUserSkills(ctx, userID, face)
		if err != nil {
			r.log.Warn("user skill layer unavailable", zap.String("user_id", userID), zap.Error(err))
			userLayer = nil
		}
	}

	return Set{
		Active:    fold(face, platform, frameLayers),
		UserLayer: filterFace(userLayer, face),
	}, nil
}

// fold applies the frame layers left to right over the platform base.
// Guard skills only ever enter from the base layer; non-platform guards
// are dropped.
func fold(face store.Face, platform []store.Skill, frameLayers [][]store.Skill) map[store.SkillCategory]store.Skill {
	active := make(map[store.SkillCategory]store.Skill)
	for _, sk := range filterFace(platform, face) {
		active[sk.Category] = sk
	}
	for _, layer := range frameLayers {
		for _, sk := range filterFace(layer, face) {
			if sk.Category == store.CategoryGuard {
				continue
			}
			active[sk.Category] = sk
		}
	}
	return active
}

func filterFace(skills []store.Skill, face store.Face) []store.Skill {
	var out []store.Skill
	for _, sk := range skills {
		if sk.AppliesToFace(face) {
			out = append(out, sk)
		}
	}
	return out
}
