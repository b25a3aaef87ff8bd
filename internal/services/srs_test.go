package services

import (
	"testing"
	"time"
)

func TestReviewSM2FirstIntervals(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	state := SM2State{EaseFactor: 2.5}
	state, due, err := ReviewSM2(state, 5, now)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if state.Repetitions != 1 || state.IntervalDays != 1 {
		t.Fatalf("after first review: reps=%d interval=%d, want 1/1", state.Repetitions, state.IntervalDays)
	}
	if !due.Equal(now.AddDate(0, 0, 1)) {
		t.Fatalf("due=%v, want +1 day", due)
	}

	state, _, err = ReviewSM2(state, 5, now)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if state.Repetitions != 2 || state.IntervalDays != 6 {
		t.Fatalf("after second review: reps=%d interval=%d, want 2/6", state.Repetitions, state.IntervalDays)
	}

	// Third interval is round(6 * EF). Two perfect reviews raised EF to 2.7.
	state, _, err = ReviewSM2(state, 5, now)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if state.IntervalDays != 16 {
		t.Fatalf("third interval=%d, want round(6*2.7)=16", state.IntervalDays)
	}
}

func TestReviewSM2FailureResets(t *testing.T) {
	now := time.Now()
	state := SM2State{Repetitions: 4, EaseFactor: 2.5, IntervalDays: 30}
	state, due, err := ReviewSM2(state, 1, now)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if state.Repetitions != 0 || state.IntervalDays != 1 {
		t.Fatalf("failed review must reset: reps=%d interval=%d", state.Repetitions, state.IntervalDays)
	}
	if !due.Equal(now.AddDate(0, 0, 1)) {
		t.Fatalf("due=%v, want +1 day", due)
	}
}

func TestReviewSM2EaseFloor(t *testing.T) {
	now := time.Now()
	state := SM2State{EaseFactor: 1.3}
	for i := 0; i < 5; i++ {
		var err error
		state, _, err = ReviewSM2(state, 0, now)
		if err != nil {
			t.Fatalf("review %d: %v", i, err)
		}
	}
	if state.EaseFactor < MinEaseFactor {
		t.Fatalf("ease=%v fell below floor %v", state.EaseFactor, MinEaseFactor)
	}
	if state.EaseFactor != MinEaseFactor {
		t.Fatalf("repeated blackouts should pin ease at floor, got %v", state.EaseFactor)
	}
}

func TestReviewSM2EaseAdjustments(t *testing.T) {
	now := time.Now()
	cases := []struct {
		quality int
		want    float64
	}{
		{5, 2.6},  // +0.1
		{4, 2.5},  // unchanged
		{3, 2.36}, // -0.14
	}
	for _, tc := range cases {
		state, _, err := ReviewSM2(SM2State{EaseFactor: 2.5}, tc.quality, now)
		if err != nil {
			t.Fatalf("quality %d: %v", tc.quality, err)
		}
		if diff := state.EaseFactor - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("quality %d: ease=%v, want %v", tc.quality, state.EaseFactor, tc.want)
		}
	}
}

func TestReviewSM2RejectsBadQuality(t *testing.T) {
	if _, _, err := ReviewSM2(SM2State{}, 6, time.Now()); err == nil {
		t.Fatalf("quality 6 accepted")
	}
	if _, _, err := ReviewSM2(SM2State{}, -1, time.Now()); err == nil {
		t.Fatalf("quality -1 accepted")
	}
}
