package skill

import (
	"context"
	"errors"
	"testing"

	"xstream/internal/store"
)

type fakeSource struct {
	platform []store.Skill
	packages []store.SkillPackage
	user     []store.Skill

	platformErr error
	packagesErr error
	userErr     error
}

func (f *fakeSource) ListPlatformSkills(ctx context.Context, face store.Face) ([]store.Skill, error) {
	return f.platform, f.platformErr
}

func (f *fakeSource) ListFramePackages(ctx context.Context, frameID string) ([]store.SkillPackage, error) {
	return f.packages, f.packagesErr
}

func (f *fakeSource) ListUserSkills(ctx context.Context, userID string, face store.Face) ([]store.Skill, error) {
	return f.user, f.userErr
}

func sk(name string, cat store.SkillCategory, level store.PackageLevel, faces ...store.Face) store.Skill {
	if len(faces) == 0 {
		faces = []store.Face{store.FacePlayer, store.FaceAuthor, store.FaceDesigner}
	}
	return store.Skill{ID: name, Name: name, Category: cat, AppliesTo: faces, Content: "content of " + name, Level: level}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("frame layer overrides platform", func(t *testing.T) {
		src := &fakeSource{
			platform: []store.Skill{sk("base-format", store.CategoryFormat, store.LevelPlatform)},
			packages: []store.SkillPackage{{
				ID:       "pkg1",
				Priority: 100,
				Skills:   []store.Skill{sk("frame-format", store.CategoryFormat, store.LevelFrame)},
			}},
		}
		set, err := NewResolver(src, nil).Resolve(ctx, store.FacePlayer, "frame1", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := set.Active[store.CategoryFormat].Name; got != "frame-format" {
			t.Fatalf("expected frame-format to win, got %q", got)
		}
	})

	t.Run("later package overrides earlier", func(t *testing.T) {
		src := &fakeSource{
			packages: []store.SkillPackage{
				{ID: "pkg1", Priority: 10, Skills: []store.Skill{sk("early", store.CategoryWeighting, store.LevelFrame)}},
				{ID: "pkg2", Priority: 20, Skills: []store.Skill{sk("late", store.CategoryWeighting, store.LevelFrame)}},
			},
		}
		set, err := NewResolver(src, nil).Resolve(ctx, store.FacePlayer, "frame1", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := set.Active[store.CategoryWeighting].Name; got != "late" {
			t.Fatalf("expected later package to win, got %q", got)
		}
	})

	t.Run("guard only enters from platform", func(t *testing.T) {
		src := &fakeSource{
			platform: []store.Skill{sk("platform-guard", store.CategoryGuard, store.LevelPlatform)},
			packages: []store.SkillPackage{{
				ID:     "pkg1",
				Skills: []store.Skill{sk("rogue-guard", store.CategoryGuard, store.LevelFrame)},
			}},
		}
		set, err := NewResolver(src, nil).Resolve(ctx, store.FacePlayer, "frame1", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := set.Active[store.CategoryGuard].Name; got != "platform-guard" {
			t.Fatalf("expected platform guard to survive, got %q", got)
		}
	})

	t.Run("frame guard dropped without platform guard", func(t *testing.T) {
		src := &fakeSource{
			packages: []store.SkillPackage{{
				ID:     "pkg1",
				Skills: []store.Skill{sk("rogue-guard", store.CategoryGuard, store.LevelFrame)},
			}},
		}
		set, err := NewResolver(src, nil).Resolve(ctx, store.FacePlayer, "frame1", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := set.Active[store.CategoryGuard]; ok {
			t.Fatalf("expected no guard in resolved set")
		}
	})

	t.Run("skills not matching face are ignored", func(t *testing.T) {
		src := &fakeSource{
			platform: []store.Skill{sk("designer-only", store.CategoryFormat, store.LevelPlatform, store.FaceDesigner)},
		}
		set, err := NewResolver(src, nil).Resolve(ctx, store.FacePlayer, "", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(set.Active) != 0 {
			t.Fatalf("expected empty set, got %d entries", len(set.Active))
		}
	})

	t.Run("user layer carried but not applied", func(t *testing.T) {
		src := &fakeSource{
			platform: []store.Skill{sk("base-format", store.CategoryFormat, store.LevelPlatform)},
			user:     []store.Skill{sk("user-format", store.CategoryFormat, store.LevelUser)},
		}
		set, err := NewResolver(src, nil).Resolve(ctx, store.FacePlayer, "frame1", "user1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := set.Active[store.CategoryFormat].Name; got != "base-format" {
			t.Fatalf("expected platform skill to stay active, got %q", got)
		}
		if len(set.UserLayer) != 1 || set.UserLayer[0].Name != "user-format" {
			t.Fatalf("expected user layer carried, got %#v", set.UserLayer)
		}
	})

	t.Run("layer read failures degrade", func(t *testing.T) {
		src := &fakeSource{
			platform:    []store.Skill{sk("base-format", store.CategoryFormat, store.LevelPlatform)},
			packagesErr: errors.New("frame layer down"),
			userErr:     errors.New("user layer down"),
		}
		set, err := NewResolver(src, nil).Resolve(ctx, store.FacePlayer, "frame1", "user1")
		if err != nil {
			t.Fatalf("expected degraded resolution, got %v", err)
		}
		if got := set.Active[store.CategoryFormat].Name; got != "base-format" {
			t.Fatalf("expected platform layer to survive, got %q", got)
		}
		if set.UserLayer != nil {
			t.Fatalf("expected empty user layer, got %#v", set.UserLayer)
		}
	})

	t.Run("unknown face rejected", func(t *testing.T) {
		if _, err := NewResolver(&fakeSource{}, nil).Resolve(ctx, "narrator", "", ""); err == nil {
			t.Fatalf("expected error for unknown face")
		}
	})

	t.Run("in-order listing follows category order", func(t *testing.T) {
		src := &fakeSource{
			platform: []store.Skill{
				sk("display", store.CategoryDisplay, store.LevelPlatform),
				sk("guard", store.CategoryGuard, store.LevelPlatform),
				sk("format", store.CategoryFormat, store.LevelPlatform),
			},
		}
		set, err := NewResolver(src, nil).Resolve(ctx, store.FacePlayer, "", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		ordered := set.InOrder()
		if len(ordered) != 3 {
			t.Fatalf("expected 3 skills, got %d", len(ordered))
		}
		if ordered[0].Name != "guard" || ordered[1].Name != "format" || ordered[2].Name != "display" {
			t.Fatalf("unexpected order: %q %q %q", ordered[0].Name, ordered[1].Name, ordered[2].Name)
		}
	})
}
