package services

import (
	"fmt"
	"math"
	"time"
)

// SM2State is the spaced-repetition scheduling state carried on a flashcard.
type SM2State struct {
	Repetitions  int
	EaseFactor   float64
	IntervalDays int
}

// MinEaseFactor is the SM-2 ease floor; repeated failures cannot push a card
// below it.
const MinEaseFactor = 1.3

// ReviewSM2 applies one review with quality 0 (blackout) to 5 (perfect).
// Quality below 3 resets the repetition streak to a one-day interval; the
// ease factor is adjusted on every review and clamped at the floor. Intervals
// run 1 day, 6 days, then round(previous * ease).
func ReviewSM2(state SM2State, quality int, now time.Time) (SM2State, time.Time, error) {
	if quality < 0 || quality > 5 {
		return state, time.Time{}, fmt.Errorf("quality must be 0..5, got %d", quality)
	}

	ef := state.EaseFactor
	if ef == 0 {
		ef = 2.5
	}
	q := float64(quality)
	ef += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}

	next := SM2State{EaseFactor: ef}
	if quality < 3 {
		next.Repetitions = 0
		next.IntervalDays = 1
	} else {
		next.Repetitions = state.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(state.IntervalDays) * ef))
			if next.IntervalDays < 1 {
				next.IntervalDays = 1
			}
		}
	}

	due := now.AddDate(0, 0, next.IntervalDays)
	return next, due, nil
}
