package types

import (
	"testing"

	"github.com/google/uuid"
)

func TestBuildManifestCumulativeStarts(t *testing.T) {
	id := uuid.New()
	m := BuildManifest(id,
		[]string{"c0.mp3", "c1.mp3", "c2.mp3"},
		[]float64{10, 8, 5},
		0.7,
	)

	if m.ChunkCount != 3 || len(m.Chunks) != 3 {
		t.Fatalf("chunk count=%d/%d, want 3", m.ChunkCount, len(m.Chunks))
	}
	wantStarts := []float64{0, 10, 18}
	for i, c := range m.Chunks {
		if c.StartTime != wantStarts[i] {
			t.Fatalf("chunk %d start=%v, want %v", i, c.StartTime, wantStarts[i])
		}
		if c.Index != i {
			t.Fatalf("chunk %d index=%d", i, c.Index)
		}
	}
	if m.TotalDuration != 23 {
		t.Fatalf("total=%v, want 23", m.TotalDuration)
	}
	if m.PauseDuration != 0.7 {
		t.Fatalf("pause=%v, want 0.7", m.PauseDuration)
	}
	if m.LessonID != id {
		t.Fatalf("lesson id changed")
	}
}

func TestBuildManifestInvariantHolds(t *testing.T) {
	m := BuildManifest(uuid.New(), nil, []float64{3.2, 0, 7.5, 1.1}, 0.7)
	var sum float64
	for i, c := range m.Chunks {
		if c.StartTime != sum {
			t.Fatalf("chunk %d start=%v, want running sum %v", i, c.StartTime, sum)
		}
		sum += c.Duration
	}
	if m.TotalDuration != sum {
		t.Fatalf("total=%v, want %v", m.TotalDuration, sum)
	}
}

func TestBuildManifestEmpty(t *testing.T) {
	m := BuildManifest(uuid.New(), nil, nil, 0.7)
	if m.ChunkCount != 0 || m.TotalDuration != 0 || len(m.Chunks) != 0 {
		t.Fatalf("empty manifest: %+v", m)
	}
}
