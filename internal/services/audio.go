package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/pipeline"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/repos"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/utils"
)

// InterChunkPauseSeconds is the playback gap the client inserts between
// sequential chunks; recorded in the manifest so the client never hardcodes
// it.
const InterChunkPauseSeconds = 0.7

// AudioService owns the synthesis side of the pipeline: it turns a lesson's
// narration script into stored mp3 assets and fills in audio_url, duration
// and the chunk manifest additively. A lesson whose synthesis failed keeps a
// NULL audio_url and stays playable in simulated-clock mode.
type AudioService interface {
	// EnsureAudio synthesizes the full narration as one asset. Idempotent:
	// a lesson that already has audio is returned as-is.
	EnsureAudio(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error)
	// EnsureChunkedAudio synthesizes the narration slice-by-slice and builds
	// the playlist manifest once every chunk's duration is known.
	EnsureChunkedAudio(ctx context.Context, lessonID uuid.UUID) (*types.AudioPlaylistManifest, error)
	// Manifest returns the stored chunk manifest, or nil when the lesson has
	// single-file audio only.
	Manifest(ctx context.Context, lessonID uuid.UUID) (*types.AudioPlaylistManifest, error)
	// AudioBytes reads the stored single-file asset back for transcription.
	AudioBytes(ctx context.Context, lessonID uuid.UUID) ([]byte, error)
	// SourceURI is the provider-native address of the single-file asset.
	SourceURI(lessonID uuid.UUID) string
}

type audioService struct {
	log         *logger.Logger
	tts         TTSService
	bucket      BucketService
	lessonRepo  repos.LessonRepo
	bitrateKbps float64

	mu     sync.Mutex
	locked map[uuid.UUID]*lessonLock
}

func NewAudioService(log *logger.Logger, tts TTSService, bucket BucketService, lessonRepo repos.LessonRepo) AudioService {
	slog := log.With("service", "AudioService")
	return &audioService{
		log:         slog,
		tts:         tts,
		bucket:      bucket,
		lessonRepo:  lessonRepo,
		bitrateKbps: utils.GetEnvAsFloat("AUDIO_BITRATE_KBPS", 48, slog),
		locked:      make(map[uuid.UUID]*lessonLock),
	}
}

// lessonLock serializes synthesis per lesson so concurrent audio requests for
// the same lesson don't double-spend on TTS. Entries are refcounted and
// removed once the last holder releases.
type lessonLock struct {
	mu   sync.Mutex
	refs int
}

func (as *audioService) acquireLesson(id uuid.UUID) *lessonLock {
	as.mu.Lock()
	l, ok := as.locked[id]
	if !ok {
		l = &lessonLock{}
		as.locked[id] = l
	}
	l.refs++
	as.mu.Unlock()

	l.mu.Lock()
	return l
}

func (as *audioService) releaseLesson(id uuid.UUID, l *lessonLock) {
	l.mu.Unlock()
	as.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(as.locked, id)
	}
	as.mu.Unlock()
}

func audioKey(lessonID uuid.UUID) string {
	return fmt.Sprintf("audio/%s.mp3", lessonID)
}

func chunkKey(lessonID uuid.UUID, index int) string {
	return fmt.Sprintf("audio/%s/chunk_%d.mp3", lessonID, index)
}

// estimateDuration derives seconds from mp3 byte length at the configured
// constant bitrate. Good enough for playlist offsets; the re-sync engine uses
// the larger of this and the last word's end anyway.
func (as *audioService) estimateDuration(data []byte) float64 {
	if as.bitrateKbps <= 0 {
		return 0
	}
	return float64(len(data)) * 8 / (as.bitrateKbps * 1000)
}

func (as *audioService) EnsureAudio(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error) {
	lock := as.acquireLesson(lessonID)
	defer as.releaseLesson(lessonID, lock)

	lesson, err := as.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %s not found", lessonID)
	}
	if lesson.AudioURL != nil {
		return lesson, nil
	}
	if as.tts == nil {
		return nil, &pipeline.SynthesisError{Err: fmt.Errorf("synthesis not configured")}
	}

	data, err := as.tts.Synthesize(ctx, lesson.NarrationScript)
	if err != nil {
		return nil, err
	}

	key := audioKey(lessonID)
	if err := as.bucket.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, &pipeline.SynthesisError{Err: fmt.Errorf("store audio: %w", err)}
	}

	url := as.bucket.GetPublicURL(key)
	duration := as.estimateDuration(data)
	updates := map[string]interface{}{
		"audio_url": url,
		"duration":  duration,
	}
	if err := as.lessonRepo.UpdateFields(ctx, nil, lessonID, updates); err != nil {
		return nil, fmt.Errorf("persist audio url: %w", err)
	}

	lesson.AudioURL = &url
	lesson.Duration = duration
	as.log.Info("Lesson audio ready", "lesson_id", lessonID, "bytes", len(data), "duration", duration)
	return lesson, nil
}

func (as *audioService) EnsureChunkedAudio(ctx context.Context, lessonID uuid.UUID) (*types.AudioPlaylistManifest, error) {
	lock := as.acquireLesson(lessonID)
	defer as.releaseLesson(lessonID, lock)

	lesson, err := as.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %s not found", lessonID)
	}
	if m := decodeManifest(lesson.AudioManifest); m != nil {
		return m, nil
	}
	if as.tts == nil {
		return nil, &pipeline.SynthesisError{Err: fmt.Errorf("synthesis not configured")}
	}

	slices := ChunkText(lesson.NarrationScript, MaxSynthesisChars)
	if len(slices) == 0 {
		return nil, &pipeline.SynthesisError{Err: fmt.Errorf("empty narration text")}
	}

	files := make([]string, len(slices))
	durations := make([]float64, len(slices))
	chunkData := make([][]byte, len(slices))

	// Chunks synthesize in parallel with bounded fan-out; the manifest is
	// built only after every duration is known.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for i, slice := range slices {
		g.Go(func() error {
			data, err := as.tts.Synthesize(gctx, slice)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			key := chunkKey(lessonID, i)
			if err := as.bucket.UploadFile(gctx, key, bytes.NewReader(data)); err != nil {
				return &pipeline.SynthesisError{Err: fmt.Errorf("store chunk %d: %w", i, err)}
			}
			files[i] = as.bucket.GetPublicURL(key)
			durations[i] = as.estimateDuration(data)
			chunkData[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Transcription reads the single asset, so the chunked path stores the
	// concatenated bytes there too.
	full := bytes.Join(chunkData, nil)
	fullKey := audioKey(lessonID)
	if err := as.bucket.UploadFile(ctx, fullKey, bytes.NewReader(full)); err != nil {
		return nil, &pipeline.SynthesisError{Err: fmt.Errorf("store audio: %w", err)}
	}

	manifest := types.BuildManifest(lessonID, files, durations, InterChunkPauseSeconds)
	raw, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	updates := map[string]interface{}{
		"audio_manifest": datatypes.JSON(raw),
		"audio_url":      as.bucket.GetPublicURL(fullKey),
		"duration":       manifest.TotalDuration,
	}
	if err := as.lessonRepo.UpdateFields(ctx, nil, lessonID, updates); err != nil {
		return nil, fmt.Errorf("persist manifest: %w", err)
	}

	as.log.Info("Lesson chunked audio ready",
		"lesson_id", lessonID,
		"chunks", manifest.ChunkCount,
		"total_duration", manifest.TotalDuration,
	)
	return &manifest, nil
}

func (as *audioService) Manifest(ctx context.Context, lessonID uuid.UUID) (*types.AudioPlaylistManifest, error) {
	lesson, err := as.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %s not found", lessonID)
	}
	return decodeManifest(lesson.AudioManifest), nil
}

func (as *audioService) AudioBytes(ctx context.Context, lessonID uuid.UUID) ([]byte, error) {
	return as.bucket.ReadFile(ctx, audioKey(lessonID))
}

func (as *audioService) SourceURI(lessonID uuid.UUID) string {
	return as.bucket.SourceURI(audioKey(lessonID))
}

func decodeManifest(raw datatypes.JSON) *types.AudioPlaylistManifest {
	if len(raw) == 0 {
		return nil
	}
	var m types.AudioPlaylistManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	if m.ChunkCount == 0 {
		return nil
	}
	return &m
}
