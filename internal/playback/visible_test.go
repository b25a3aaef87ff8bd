package playback

import (
	"testing"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

func text(ts float64, content string) types.BoardAction {
	return types.BoardAction{
		Kind:      types.ActionText,
		Timestamp: ts,
		Payload:   types.TextPayload{Content: content},
	}
}

func clear(ts float64) types.BoardAction {
	return types.BoardAction{Kind: types.ActionClear, Timestamp: ts, Payload: types.ClearPayload{}}
}

func contents(actions []types.BoardAction) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		if tp, ok := a.Payload.(types.TextPayload); ok {
			out = append(out, tp.Content)
		}
	}
	return out
}

func TestVisibleActionsClearWipes(t *testing.T) {
	timeline := []types.BoardAction{text(0, "a"), clear(5), text(6, "b")}

	got := VisibleActions(timeline, 10)
	if len(got) != 1 {
		t.Fatalf("visible=%v, want exactly one action", contents(got))
	}
	if tp := got[0].Payload.(types.TextPayload); tp.Content != "b" {
		t.Fatalf("visible content=%q, want %q", tp.Content, "b")
	}
}

func TestVisibleActionsBeforeClear(t *testing.T) {
	timeline := []types.BoardAction{text(0, "a"), text(2, "b"), clear(5), text(6, "c")}

	got := VisibleActions(timeline, 4)
	want := []string{"a", "b"}
	if len(got) != 2 || contents(got)[0] != want[0] || contents(got)[1] != want[1] {
		t.Fatalf("visible=%v, want %v", contents(got), want)
	}
}

func TestVisibleActionsFutureHidden(t *testing.T) {
	timeline := []types.BoardAction{text(0, "a"), text(9, "later")}
	got := VisibleActions(timeline, 3)
	if len(got) != 1 || got[0].Payload.(types.TextPayload).Content != "a" {
		t.Fatalf("visible=%v, want only the reached action", contents(got))
	}
}

func TestVisibleActionsMultipleClears(t *testing.T) {
	timeline := []types.BoardAction{
		text(0, "a"), clear(2), text(3, "b"), clear(6), text(7, "c"), text(8, "d"),
	}
	got := VisibleActions(timeline, 7.5)
	if len(got) != 1 || got[0].Payload.(types.TextPayload).Content != "c" {
		t.Fatalf("visible=%v, want [c]", contents(got))
	}
}

func TestVisibleActionsFutureClearIgnored(t *testing.T) {
	timeline := []types.BoardAction{text(0, "a"), clear(9)}
	got := VisibleActions(timeline, 5)
	if len(got) != 1 {
		t.Fatalf("a clear not yet reached must not wipe: visible=%v", contents(got))
	}
}

func TestVisibleActionsPure(t *testing.T) {
	timeline := []types.BoardAction{text(0, "a"), clear(5), text(6, "b")}
	first := VisibleActions(timeline, 10)
	second := VisibleActions(timeline, 10)
	if len(first) != len(second) {
		t.Fatalf("repeated calls disagree: %d vs %d", len(first), len(second))
	}
	if timeline[0].Timestamp != 0 || timeline[1].Kind != types.ActionClear {
		t.Fatalf("input slice mutated: %#v", timeline)
	}
}

func TestVisibleActionsEmpty(t *testing.T) {
	if got := VisibleActions(nil, 100); len(got) != 0 {
		t.Fatalf("expected empty visible set, got %d actions", len(got))
	}
}
