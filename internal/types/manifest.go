package types

import (
	"github.com/google/uuid"
)

// AudioChunk describes one file of a chunked audio asset.
type AudioChunk struct {
	Index    int     `json:"index"`
	File     string  `json:"file"`
	Duration float64 `json:"duration"`
	// StartTime is the chunk's offset on the lesson timeline: the sum of all
	// preceding chunk durations.
	StartTime float64 `json:"start_time"`
}

// AudioPlaylistManifest describes an audio asset split into sequential files
// to keep per-request synthesis latency bounded. Built once, after every
// chunk's duration is known; consumed read-only by the client player.
type AudioPlaylistManifest struct {
	LessonID      uuid.UUID    `json:"lesson_id"`
	TotalDuration float64      `json:"total_duration"`
	ChunkCount    int          `json:"chunk_count"`
	PauseDuration float64      `json:"pause_duration"`
	Chunks        []AudioChunk `json:"chunks"`
}

// BuildManifest computes cumulative start times from per-chunk durations.
func BuildManifest(lessonID uuid.UUID, files []string, durations []float64, pause float64) AudioPlaylistManifest {
	n := len(durations)
	m := AudioPlaylistManifest{
		LessonID:      lessonID,
		ChunkCount:    n,
		PauseDuration: pause,
		Chunks:        make([]AudioChunk, 0, n),
	}
	var cum float64
	for i := 0; i < n; i++ {
		file := ""
		if i < len(files) {
			file = files[i]
		}
		m.Chunks = append(m.Chunks, AudioChunk{
			Index:     i,
			File:      file,
			Duration:  durations[i],
			StartTime: cum,
		})
		cum += durations[i]
	}
	m.TotalDuration = cum
	return m
}
