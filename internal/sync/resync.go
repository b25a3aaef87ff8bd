// Package sync maps LLM-guessed board action timestamps onto the real spoken
// timeline produced by word-level transcription.
//
// The mapping is deliberately approximate: the draft timestamps are treated
// as a proportional guide (the LLM's pacing guess is systematically too fast
// or too slow relative to real synthesized speech), rescaled onto the true
// audio duration and snapped to the nearest actually-spoken word. There is no
// semantic alignment of action content to words.
package sync

import (
	"math"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

// Resync returns a copy of the draft action sequence with only timestamps
// replaced. audioDuration may be 0 when unknown; the true timeline length is
// then the last word's end.
//
// The corrected sequence is always monotonically non-decreasing, even when
// draft timestamps are not. clear actions are rescaled like any other.
func Resync(draft []types.BoardAction, words types.WordTimestampList, audioDuration float64) []types.BoardAction {
	if len(draft) == 0 {
		return []types.BoardAction{}
	}

	synced := make([]types.BoardAction, 0, len(draft))
	if len(words) == 0 {
		// Nothing to anchor on; callers normally skip re-sync entirely when
		// transcription failed, but keep the copy contract anyway.
		synced = append(synced, draft...)
		return synced
	}

	totalDraft := totalDraftDuration(draft)
	totalTrue := math.Max(words.TotalDuration(), audioDuration)

	prev := math.Inf(-1)
	for _, action := range draft {
		fraction := 0.0
		if totalDraft > 0 {
			fraction = action.Timestamp / totalDraft
			if fraction < 0 {
				fraction = 0
			}
			if fraction > 1 {
				fraction = 1
			}
		}
		candidate := fraction * totalTrue
		ts := snapToWord(candidate, words)
		if ts < prev {
			ts = prev
		}
		prev = ts
		synced = append(synced, action.WithTimestamp(ts))
	}
	return synced
}

// totalDraftDuration is the largest draft timestamp. The max (not the last
// element) tolerates non-monotonic LLM output.
func totalDraftDuration(actions []types.BoardAction) float64 {
	var total float64
	for _, a := range actions {
		if a.Timestamp > total {
			total = a.Timestamp
		}
	}
	return total
}

// snapToWord anchors a candidate time to a spoken moment: the start of the
// word whose [start, end] interval contains it, or in a silence gap the word
// with minimal |candidate - start|, earlier word winning ties.
func snapToWord(candidate float64, words types.WordTimestampList) float64 {
	best := words[0].Start
	bestDist := math.Inf(1)
	for _, w := range words {
		if candidate >= w.Start && candidate <= w.End {
			return w.Start
		}
		dist := math.Abs(candidate - w.Start)
		if dist < bestDist {
			bestDist = dist
			best = w.Start
		}
	}
	return best
}
