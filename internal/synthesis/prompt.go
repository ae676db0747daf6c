package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"xstream/internal/store"
)

// Prompt is a compiled system/user pair with the face-specific output
// budget. The invoker adds the thinking allowance on top of MaxTokens.
type Prompt struct {
	System    string
	User      string
	MaxTokens int
}

// Face-specific output budgets.
const (
	playerMaxTokens   = 512
	authorMaxTokens   = 1024
	designerMaxTokens = 2048
)

// skillSection renders the resolved skills into the system prompt in
// fixed category order.
func skillSection(sc *Context) string {
	skills := sc.Skills.InOrder()
	if len(skills) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nActive skills (apply each as an operating rule):\n")
	for _, sk := range skills {
		fmt.Fprintf(&b, "\n[%s] %s\n%s\n", sk.Category, sk.Name, strings.TrimSpace(sk.Content))
	}
	return b.String()
}

func recentNarrativeSection(b *strings.Builder, sc *Context) {
	var lines []string
	for _, solid := range sc.RecentSolid {
		if strings.TrimSpace(solid.Narrative) == "" {
			continue
		}
		lines = append(lines, strings.TrimSpace(solid.Narrative))
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString("## Recent narrative (for continuity)\n\n")
	b.WriteString(strings.Join(lines, "\n\n"))
	b.WriteString("\n\n")
}

func worldContentSection(b *strings.Builder, sc *Context) {
	if len(sc.WorldContent) == 0 {
		return
	}
	b.WriteString("## Established world content\n\n")
	for _, c := range sc.WorldContent {
		fmt.Fprintf(b, "- %s (%s)%s\n", c.Name, c.Type, contentDetail(c.Data))
	}
	b.WriteString("\n")
}

// contentDetail renders the open data map as "key: value" pairs in key
// order, description first.
func contentDetail(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		if k != "description" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := data["description"]; ok {
		keys = append([]string{"description"}, keys...)
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, data[k]))
	}
	return ": " + strings.Join(parts, "; ")
}

// playerActionsSection groups every player-face submission by user,
// committed before merely submitted, so the model weaves all of them.
func playerActionsSection(b *strings.Builder, sc *Context) {
	byUser := make(map[string][]store.Liquid)
	var order []string
	for _, l := range sc.AllLiquid {
		if l.Face != store.FacePlayer {
			continue
		}
		if _, seen := byUser[l.UserID]; !seen {
			order = append(order, l.UserID)
		}
		byUser[l.UserID] = append(byUser[l.UserID], l)
	}
	if len(order) == 0 {
		return
	}
	b.WriteString("## Player actions to synthesize\n\n")
	for _, userID := range order {
		entries := byUser[userID]
		fmt.Fprintf(b, "### %s\n", entries[0].UserName)
		for _, l := range entries {
			state := "submitted"
			if l.Committed {
				state = "committed"
			}
			fmt.Fprintf(b, "- [%s] %s\n", state, strings.TrimSpace(l.Content))
		}
		b.WriteString("\n")
	}
}

func triggerSection(b *strings.Builder, sc *Context) {
	fmt.Fprintf(b, "## Triggering commit\n\n%s: %s\n", sc.Trigger.UserName, strings.TrimSpace(sc.Trigger.Content))
}
