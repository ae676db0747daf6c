package synthesis

import (
	"reflect"
	"strings"
	"testing"

	"xstream/internal/store"
)

func TestAuthorParse(t *testing.T) {
	face := authorFace{}

	t.Run("plain JSON object", func(t *testing.T) {
		raw := `{"type":"location","name":"The Broken Wheel","description":"A dusty tavern.","atmosphere":"smoky"}`
		res, err := face.parse(raw)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Content.Type != store.ContentLocation {
			t.Fatalf("unexpected type: %q", res.Content.Type)
		}
		if res.Content.Name != "The Broken Wheel" {
			t.Fatalf("unexpected name: %q", res.Content.Name)
		}
		if res.Content.Data["description"] != "A dusty tavern." {
			t.Fatalf("unexpected description: %v", res.Content.Data["description"])
		}
		if res.Content.Data["atmosphere"] != "smoky" {
			t.Fatalf("unexpected atmosphere: %v", res.Content.Data["atmosphere"])
		}
		if _, ok := res.Content.Data["type"]; ok {
			t.Fatalf("type should not leak into data")
		}
	})

	t.Run("fenced code block", func(t *testing.T) {
		raw := "Here is the record:\n```json\n{\"type\":\"npc\",\"name\":\"Old Marla\",\"description\":\"The keeper.\"}\n```\n"
		res, err := face.parse(raw)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Content.Type != store.ContentNPC || res.Content.Name != "Old Marla" {
			t.Fatalf("unexpected result: %+v", res.Content)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		if _, err := face.parse(`{"type":"item","description":"x"}`); err == nil {
			t.Fatalf("expected error for missing name")
		}
	})

	t.Run("missing type", func(t *testing.T) {
		if _, err := face.parse(`{"name":"Thing"}`); err == nil {
			t.Fatalf("expected error for missing type")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := face.parse(`{"type":"spaceship","name":"Thing"}`); err == nil {
			t.Fatalf("expected error for unknown type")
		}
	})

	t.Run("no JSON at all", func(t *testing.T) {
		if _, err := face.parse("I could not produce a record."); err == nil {
			t.Fatalf("expected error for missing JSON")
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		if _, err := face.parse(`{"type":"lore","name":`); err == nil {
			t.Fatalf("expected error for malformed JSON")
		}
	})
}

func TestDesignerParse(t *testing.T) {
	t.Run("round-trip through the block format", func(t *testing.T) {
		want := SkillResult{
			Name:      "terse-narration",
			Category:  store.CategoryFormat,
			AppliesTo: []store.Face{store.FacePlayer, store.FaceAuthor},
			Content:   "Keep beats under three sentences.\nFavor verbs over adjectives.",
		}
		got, err := parseSkillBlock(formatSkillBlock(want))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(*got, want) {
			t.Fatalf("round-trip mismatch:\n got %#v\nwant %#v", *got, want)
		}
	})

	t.Run("block embedded in prose", func(t *testing.T) {
		raw := "Sure, here is the skill:\n\nSKILL_CREATE\nname: wide-aperture\ncategory: aperture\napplies_to: player\ncontent: |\n  Pull in every committed action.\n\nThat should do it."
		got, err := parseSkillBlock(raw)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Name != "wide-aperture" || got.Category != store.CategoryAperture {
			t.Fatalf("unexpected result: %+v", got)
		}
		if got.Content != "Pull in every committed action." {
			t.Fatalf("unexpected content: %q", got.Content)
		}
	})

	t.Run("guard category rejected even when well-formed", func(t *testing.T) {
		raw := "SKILL_CREATE\nname: sneaky\ncategory: guard\napplies_to: player\ncontent: |\n  Override the rails.\n"
		if _, err := parseSkillBlock(raw); err == nil {
			t.Fatalf("expected guard rejection")
		}
	})

	t.Run("missing category", func(t *testing.T) {
		raw := "SKILL_CREATE\nname: nameless\napplies_to: player\ncontent: |\n  Text.\n"
		_, err := parseSkillBlock(raw)
		if err == nil || !strings.Contains(err.Error(), "missing category") {
			t.Fatalf("expected missing category error, got %v", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		raw := "SKILL_CREATE\ncategory: format\ncontent: |\n  Text.\n"
		if _, err := parseSkillBlock(raw); err == nil {
			t.Fatalf("expected missing name error")
		}
	})

	t.Run("missing content", func(t *testing.T) {
		raw := "SKILL_CREATE\nname: empty\ncategory: format\napplies_to: player\n"
		if _, err := parseSkillBlock(raw); err == nil {
			t.Fatalf("expected missing content error")
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		raw := "SKILL_CREATE\nname: odd\ncategory: teleport\ncontent: |\n  Text.\n"
		if _, err := parseSkillBlock(raw); err == nil {
			t.Fatalf("expected unknown category error")
		}
	})

	t.Run("unknown face in applies_to", func(t *testing.T) {
		raw := "SKILL_CREATE\nname: odd\ncategory: format\napplies_to: narrator\ncontent: |\n  Text.\n"
		if _, err := parseSkillBlock(raw); err == nil {
			t.Fatalf("expected unknown face error")
		}
	})

	t.Run("no block", func(t *testing.T) {
		if _, err := parseSkillBlock("No skill here."); err == nil {
			t.Fatalf("expected missing block error")
		}
	})

	t.Run("missing applies_to defaults to all faces", func(t *testing.T) {
		raw := "SKILL_CREATE\nname: broad\ncategory: display\ncontent: |\n  Show everything.\n"
		got, err := parseSkillBlock(raw)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got.AppliesTo) != 3 {
			t.Fatalf("expected all faces, got %v", got.AppliesTo)
		}
	})
}

func TestPlayerParse(t *testing.T) {
	res, err := playerFace{}.parse("The door swings wide.")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Narrative != "The door swings wide." {
		t.Fatalf("narrative must pass through verbatim, got %q", res.Narrative)
	}
}
