package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"xstream/internal/store"
)

func openTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening client: %v", err)
	}
	t.Cleanup(func() { c.Close(ctx) })
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return c
}

func testFrame(t *testing.T, c *Client) store.Frame {
	t.Helper()
	f := store.Frame{ID: uuid.NewString(), Name: "Frame", CreatedAt: time.Now().UTC()}
	if err := c.CreateFrame(context.Background(), f); err != nil {
		t.Fatalf("creating frame: %v", err)
	}
	return f
}

func TestUpsertLiquid(t *testing.T) {
	ctx := context.Background()

	t.Run("resubmission replaces the draft", func(t *testing.T) {
		c := openTestClient(t)
		frame := testFrame(t, c)

		first, err := c.UpsertLiquid(ctx, store.Liquid{
			ID: uuid.NewString(), FrameID: frame.ID, UserID: "user-a", UserName: "Ada",
			Face: store.FacePlayer, Content: "first draft", CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("first upsert: %v", err)
		}

		second, err := c.UpsertLiquid(ctx, store.Liquid{
			ID: uuid.NewString(), FrameID: frame.ID, UserID: "user-a", UserName: "Ada",
			Face: store.FacePlayer, Content: "second draft", CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("second upsert: %v", err)
		}

		if second.ID != first.ID {
			t.Fatalf("draft replacement must keep the row id: %s vs %s", second.ID, first.ID)
		}
		if second.Content != "second draft" {
			t.Fatalf("draft content not replaced: %q", second.Content)
		}

		all, err := c.ListFrameLiquid(ctx, frame.ID)
		if err != nil {
			t.Fatalf("listing: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected a single draft row, got %d", len(all))
		}
	})

	t.Run("committed rows accumulate", func(t *testing.T) {
		c := openTestClient(t)
		frame := testFrame(t, c)

		l, err := c.UpsertLiquid(ctx, store.Liquid{
			ID: uuid.NewString(), FrameID: frame.ID, UserID: "user-a", UserName: "Ada",
			Face: store.FacePlayer, Content: "first action", CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if err := c.CommitLiquid(ctx, l.ID); err != nil {
			t.Fatalf("commit: %v", err)
		}

		if _, err := c.UpsertLiquid(ctx, store.Liquid{
			ID: uuid.NewString(), FrameID: frame.ID, UserID: "user-a", UserName: "Ada",
			Face: store.FacePlayer, Content: "second action", CreatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("upsert after commit: %v", err)
		}

		all, err := c.ListFrameLiquid(ctx, frame.ID)
		if err != nil {
			t.Fatalf("listing: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected committed row plus new draft, got %d rows", len(all))
		}
	})

	t.Run("drafts in different frames do not collide", func(t *testing.T) {
		c := openTestClient(t)
		frameA := testFrame(t, c)
		frameB := testFrame(t, c)

		for _, frameID := range []string{frameA.ID, frameB.ID} {
			if _, err := c.UpsertLiquid(ctx, store.Liquid{
				ID: uuid.NewString(), FrameID: frameID, UserID: "user-a", UserName: "Ada",
				Face: store.FacePlayer, Content: "draft", CreatedAt: time.Now().UTC(),
			}); err != nil {
				t.Fatalf("upsert in frame %s: %v", frameID, err)
			}
		}
	})
}

func TestCommitLiquid(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)

	if err := c.CommitLiquid(ctx, "absent"); err == nil {
		t.Fatalf("expected error committing a missing submission")
	}
}

func TestMarkLiquidProcessed(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)
	frame := testFrame(t, c)

	var ids []string
	for _, user := range []string{"user-a", "user-b"} {
		l, err := c.UpsertLiquid(ctx, store.Liquid{
			ID: uuid.NewString(), FrameID: frame.ID, UserID: user, UserName: user,
			Face: store.FacePlayer, Content: "action", CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if err := c.CommitLiquid(ctx, l.ID); err != nil {
			t.Fatalf("commit: %v", err)
		}
		ids = append(ids, l.ID)
	}

	if err := c.MarkLiquidProcessed(ctx, ids); err != nil {
		t.Fatalf("marking processed: %v", err)
	}
	for _, id := range ids {
		l, err := c.GetLiquid(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !l.Processed {
			t.Fatalf("submission %s not processed", id)
		}
	}

	if err := c.MarkLiquidProcessed(ctx, nil); err != nil {
		t.Fatalf("empty id list must be a no-op, got %v", err)
	}
}

func TestListRecentSolid(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)
	frame := testFrame(t, c)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		s := store.Solid{
			ID:        uuid.NewString(),
			FrameID:   frame.ID,
			Face:      store.FacePlayer,
			Narrative: string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := c.InsertSolid(ctx, s); err != nil {
			t.Fatalf("inserting narrative: %v", err)
		}
	}

	solids, err := c.ListRecentSolid(ctx, frame.ID, 3)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(solids) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(solids))
	}
	if solids[0].Narrative != "d" || solids[2].Narrative != "b" {
		t.Fatalf("expected newest first, got %q..%q", solids[0].Narrative, solids[2].Narrative)
	}
}

func TestGetOrCreateFramePackage(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)
	frame := testFrame(t, c)

	first, err := c.GetOrCreateFramePackage(ctx, frame.ID, "user-a")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := c.GetOrCreateFramePackage(ctx, frame.ID, "user-b")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second {
		t.Fatalf("calls must converge on one package: %s vs %s", first, second)
	}

	packages, err := c.ListFramePackages(ctx, frame.ID)
	if err != nil {
		t.Fatalf("listing packages: %v", err)
	}
	if len(packages) != 1 {
		t.Fatalf("expected one linked package, got %d", len(packages))
	}
	if packages[0].Priority != framePackagePriority {
		t.Fatalf("unexpected link priority: %d", packages[0].Priority)
	}
}

func TestListFramePackagesOrder(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)
	frame := testFrame(t, c)

	low := store.SkillPackage{ID: uuid.NewString(), Name: "low", Level: store.LevelFrame, FrameID: frame.ID}
	if err := c.CreatePackage(ctx, low); err != nil {
		t.Fatalf("creating package: %v", err)
	}
	shared := store.SkillPackage{ID: uuid.NewString(), Name: "shared", Level: store.LevelPlatform}
	if err := c.CreatePackage(ctx, shared); err != nil {
		t.Fatalf("creating package: %v", err)
	}

	if err := c.LinkFramePackage(ctx, frame.ID, low.ID, 50); err != nil {
		t.Fatalf("linking: %v", err)
	}
	if err := c.LinkFramePackage(ctx, frame.ID, shared.ID, 10); err != nil {
		t.Fatalf("linking: %v", err)
	}

	if err := c.AddSkill(ctx, store.Skill{
		ID: uuid.NewString(), PackageID: low.ID, Name: "terse",
		Category: store.CategoryFormat, AppliesTo: []store.Face{store.FacePlayer}, Content: "Short.",
	}); err != nil {
		t.Fatalf("adding skill: %v", err)
	}

	packages, err := c.ListFramePackages(ctx, frame.ID)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(packages) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(packages))
	}
	if packages[0].ID != shared.ID || packages[1].ID != low.ID {
		t.Fatalf("packages not in ascending priority: %s, %s", packages[0].Name, packages[1].Name)
	}
	if len(packages[1].Skills) != 1 || packages[1].Skills[0].Level != store.LevelFrame {
		t.Fatalf("skills not populated with level: %+v", packages[1].Skills)
	}
}

func TestCreateContentWithAudit(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)
	frame := testFrame(t, c)

	if err := c.EnsureUser(ctx, store.User{ID: "user-a", Name: "Ada"}); err != nil {
		t.Fatalf("ensuring user: %v", err)
	}

	content := store.Content{
		ID: uuid.NewString(), FrameID: frame.ID, Type: store.ContentLocation,
		Name: "The Broken Wheel", Data: map[string]any{"description": "A dusty tavern."},
		Active: true, CreatedAt: time.Now().UTC(), CreatedBy: "user-a",
	}
	audit := store.Solid{
		ID: uuid.NewString(), FrameID: frame.ID, Face: store.FaceAuthor,
		ContentData:      map[string]any{"content_id": content.ID},
		SourceIDs:        []string{"liq-1"},
		TriggeringUserID: "user-a",
		ParticipantIDs:   []string{"user-a"},
		CreatedAt:        time.Now().UTC(),
	}
	if err := c.CreateContentWithAudit(ctx, content, audit); err != nil {
		t.Fatalf("creating content with audit: %v", err)
	}

	contents, err := c.ListActiveContent(ctx, frame.ID)
	if err != nil {
		t.Fatalf("listing content: %v", err)
	}
	if len(contents) != 1 || contents[0].Data["description"] != "A dusty tavern." {
		t.Fatalf("content not persisted: %+v", contents)
	}

	solids, err := c.ListRecentSolid(ctx, frame.ID, 10)
	if err != nil {
		t.Fatalf("listing audit: %v", err)
	}
	if len(solids) != 1 || solids[0].ContentData["content_id"] != content.ID {
		t.Fatalf("audit row not persisted: %+v", solids)
	}
}

func TestGetLiquidMissing(t *testing.T) {
	c := openTestClient(t)

	l, err := c.GetLiquid(context.Background(), "absent")
	if err != nil {
		t.Fatalf("missing row must not error: %v", err)
	}
	if l != nil {
		t.Fatalf("missing row must be nil, got %+v", l)
	}
}
