package sync

import (
	"math"
	"testing"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

func textAction(ts float64, content string) types.BoardAction {
	return types.BoardAction{
		Kind:      types.ActionText,
		Timestamp: ts,
		Payload:   types.TextPayload{Content: content, X: 10, Y: 10},
	}
}

func words(triples ...[3]interface{}) types.WordTimestampList {
	out := make(types.WordTimestampList, 0, len(triples))
	for _, t := range triples {
		out = append(out, types.WordTimestamp{
			Word:  t[0].(string),
			Start: t[1].(float64),
			End:   t[2].(float64),
		})
	}
	return out
}

func TestResyncMonotonicity(t *testing.T) {
	cases := []struct {
		name  string
		draft []float64
	}{
		{name: "already_monotonic", draft: []float64{0, 2, 5, 9}},
		{name: "non_monotonic_input", draft: []float64{0, 7, 3, 9, 1}},
		{name: "all_identical", draft: []float64{4, 4, 4}},
	}
	ws := words(
		[3]interface{}{"alpha", 0.5, 1.0},
		[3]interface{}{"beta", 2.0, 2.4},
		[3]interface{}{"gamma", 5.0, 5.8},
		[3]interface{}{"delta", 9.0, 9.6},
	)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := make([]types.BoardAction, 0, len(tc.draft))
			for _, ts := range tc.draft {
				draft = append(draft, textAction(ts, "a"))
			}
			got := Resync(draft, ws, 0)
			if len(got) != len(draft) {
				t.Fatalf("len=%d, want %d", len(got), len(draft))
			}
			for i := 1; i < len(got); i++ {
				if got[i].Timestamp < got[i-1].Timestamp {
					t.Fatalf("timestamps went backward at %d: %v then %v", i, got[i-1].Timestamp, got[i].Timestamp)
				}
			}
		})
	}
}

func TestResyncZeroDraftDuration(t *testing.T) {
	ws := words(
		[3]interface{}{"first", 1.5, 2.0},
		[3]interface{}{"second", 4.0, 4.5},
	)
	// All draft timestamps zero: every action maps to fraction 0 and snaps to
	// the first word.
	draft := []types.BoardAction{textAction(0, "a"), textAction(0, "b"), textAction(0, "c")}
	got := Resync(draft, ws, 0)
	for i, a := range got {
		if a.Timestamp != 1.5 {
			t.Fatalf("action %d: timestamp=%v, want 1.5", i, a.Timestamp)
		}
	}
}

func TestResyncSingleAction(t *testing.T) {
	ws := words([3]interface{}{"only", 0.8, 1.2})
	got := Resync([]types.BoardAction{textAction(3.0, "x")}, ws, 0)
	if len(got) != 1 {
		t.Fatalf("len=%d, want 1", len(got))
	}
	if got[0].Timestamp != 0.8 {
		t.Fatalf("timestamp=%v, want 0.8", got[0].Timestamp)
	}
}

func TestSnapInsideWord(t *testing.T) {
	ws := words(
		[3]interface{}{"alpha", 1.0, 2.0},
		[3]interface{}{"beta", 3.0, 4.0},
	)
	if got := snapToWord(1.5, ws); got != 1.0 {
		t.Fatalf("snap inside word: got %v, want 1.0", got)
	}
	if got := snapToWord(3.9, ws); got != 3.0 {
		t.Fatalf("snap inside second word: got %v, want 3.0", got)
	}
}

func TestSnapInGap(t *testing.T) {
	ws := words(
		[3]interface{}{"alpha", 1.0, 2.0},
		[3]interface{}{"beta", 3.0, 4.0},
	)
	// 2.1 sits in the gap; beta's start (0.9 away) beats alpha's (1.1 away).
	if got := snapToWord(2.1, ws); got != 3.0 {
		t.Fatalf("gap snap: got %v, want 3.0", got)
	}
	// 1.9 sits inside alpha.
	if got := snapToWord(1.9, ws); got != 1.0 {
		t.Fatalf("gap snap: got %v, want 1.0", got)
	}
}

func TestSnapGapTieBreaksEarlier(t *testing.T) {
	ws := words(
		[3]interface{}{"alpha", 0.5, 1.0},
		[3]interface{}{"beta", 3.0, 4.0},
	)
	// 1.75 is equidistant from both word starts (1.25 each): earlier wins.
	if got := snapToWord(1.75, ws); got != 0.5 {
		t.Fatalf("tie snap: got %v, want 0.5 (earlier word)", got)
	}
}

func TestResyncPreservesPayloadAndOrder(t *testing.T) {
	ws := words(
		[3]interface{}{"one", 0.0, 1.0},
		[3]interface{}{"two", 5.0, 6.0},
		[3]interface{}{"three", 11.0, 12.0},
	)
	draft := []types.BoardAction{
		textAction(0, "title"),
		{Kind: types.ActionClear, Timestamp: 5, Payload: types.ClearPayload{}},
		{Kind: types.ActionCircle, Timestamp: 10, Payload: types.CirclePayload{X: 1, Y: 2, Radius: 3}},
	}
	got := Resync(draft, ws, 0)

	if got[0].Kind != types.ActionText || got[1].Kind != types.ActionClear || got[2].Kind != types.ActionCircle {
		t.Fatalf("action kinds reordered: %v %v %v", got[0].Kind, got[1].Kind, got[2].Kind)
	}
	tp, ok := got[0].Payload.(types.TextPayload)
	if !ok || tp.Content != "title" {
		t.Fatalf("text payload mutated: %#v", got[0].Payload)
	}
	cp, ok := got[2].Payload.(types.CirclePayload)
	if !ok || cp.Radius != 3 {
		t.Fatalf("circle payload mutated: %#v", got[2].Payload)
	}
	// Draft input untouched.
	if draft[2].Timestamp != 10 {
		t.Fatalf("draft mutated: %v", draft[2].Timestamp)
	}
}

func TestResyncUsesAudioDurationWhenLonger(t *testing.T) {
	// Last word ends at 4 but the audio runs to 8 (trailing silence): the
	// proportional mapping must use 8 as the true duration.
	ws := words(
		[3]interface{}{"start", 0.0, 1.0},
		[3]interface{}{"end", 3.0, 4.0},
	)
	draft := []types.BoardAction{textAction(0, "a"), textAction(10, "b")}
	got := Resync(draft, ws, 8)
	// Candidate for the last action is 8.0, in silence past "end"; nearest
	// start is 3.0.
	if got[1].Timestamp != 3.0 {
		t.Fatalf("timestamp=%v, want 3.0", got[1].Timestamp)
	}
	if math.IsNaN(got[0].Timestamp) {
		t.Fatalf("NaN timestamp")
	}
}

func TestResyncNoWords(t *testing.T) {
	draft := []types.BoardAction{textAction(1, "a"), textAction(2, "b")}
	got := Resync(draft, nil, 12)
	if len(got) != 2 || got[0].Timestamp != 1 || got[1].Timestamp != 2 {
		t.Fatalf("expected draft passthrough, got %#v", got)
	}
}
