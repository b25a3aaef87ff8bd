package playback

import (
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

// VisibleActions computes the board contents at playback position t: every
// action whose timestamp has been reached, except that a clear action wipes
// everything drawn at or before it. Only actions after the most recent
// reached clear survive.
//
// Pure function: the input slice is never mutated and repeated calls with the
// same arguments return equal results.
func VisibleActions(actions []types.BoardAction, t float64) []types.BoardAction {
	lastClear := -1
	for i, a := range actions {
		if a.Kind == types.ActionClear && a.Timestamp <= t {
			lastClear = i
		}
	}

	visible := make([]types.BoardAction, 0, len(actions))
	for i := lastClear + 1; i < len(actions); i++ {
		if actions[i].Timestamp <= t {
			visible = append(visible, actions[i])
		}
	}
	return visible
}
