package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/batch"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/bus"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/middleware"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/pipeline"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/services"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/sse"
)

type LessonHandler struct {
	log          *logger.Logger
	lessonSvc    services.LessonService
	audioSvc     services.AudioService
	ttsSvc       services.TTSService
	orchestrator *batch.Orchestrator
	hub          *sse.Hub
	eventBus     bus.Bus
}

func NewLessonHandler(
	log *logger.Logger,
	lessonSvc services.LessonService,
	audioSvc services.AudioService,
	ttsSvc services.TTSService,
	orchestrator *batch.Orchestrator,
	hub *sse.Hub,
	eventBus bus.Bus,
) *LessonHandler {
	return &LessonHandler{
		log:          log.With("handler", "LessonHandler"),
		lessonSvc:    lessonSvc,
		audioSvc:     audioSvc,
		ttsSvc:       ttsSvc,
		orchestrator: orchestrator,
		hub:          hub,
		eventBus:     eventBus,
	}
}

type generateLessonBody struct {
	Topic       string `json:"topic" binding:"required"`
	Interest    string `json:"interest"`
	Proficiency string `json:"proficiency"`
	GradeLevel  string `json:"grade_level"`
}

// POST /api/lessons/generate
func (h *LessonHandler) Generate(c *gin.Context) {
	var body generateLessonBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	lesson, err := h.lessonSvc.Generate(c.Request.Context(), services.GenerateLessonRequest{
		Topic:       body.Topic,
		Interest:    body.Interest,
		Proficiency: body.Proficiency,
		GradeLevel:  body.GradeLevel,
		UserID:      middleware.CurrentUserID(c),
	})
	if err != nil {
		RespondError(c, http.StatusBadGateway, "generation_failed", err)
		return
	}
	c.JSON(http.StatusCreated, lesson)
}

// GET /api/lessons/:id
func (h *LessonHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid lesson id"))
		return
	}
	lesson, err := h.lessonSvc.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	if lesson == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("lesson %s not found", id))
		return
	}
	RespondOK(c, lesson)
}

// GET /api/lessons?offset=&limit=
func (h *LessonHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	lessons, err := h.lessonSvc.List(c.Request.Context(), middleware.CurrentUserID(c), offset, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"lessons": lessons})
}

// DELETE /api/lessons/:id
func (h *LessonHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid lesson id"))
		return
	}
	if err := h.lessonSvc.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

// POST /api/lessons/:id/audio
//
// Blocking synthesis: returns once the full asset is stored and audio_url is
// set. Safe to call again; an existing asset short-circuits.
func (h *LessonHandler) EnsureAudio(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid lesson id"))
		return
	}
	lesson, err := h.audioSvc.EnsureAudio(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if pipeline.IsSynthesisError(err) {
			status = http.StatusBadGateway
		}
		RespondError(c, status, "synthesis_failed", err)
		return
	}
	RespondOK(c, lesson)
}

// GET /api/lessons/:id/audio/stream
//
// Streams mp3 bytes as synthesis produces them; the client starts playback
// before the full asset exists. Nothing is persisted on this path.
func (h *LessonHandler) StreamAudio(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid lesson id"))
		return
	}
	if h.ttsSvc == nil {
		RespondError(c, http.StatusServiceUnavailable, "synthesis_unavailable", fmt.Errorf("synthesis not configured"))
		return
	}
	lesson, err := h.lessonSvc.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	if lesson == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("lesson %s not found", id))
		return
	}

	audio, errc := h.ttsSvc.SynthesizeStream(c.Request.Context(), lesson.NarrationScript)

	c.Header("Content-Type", "audio/mpeg")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	flusher, _ := c.Writer.(http.Flusher)

	for chunk := range audio {
		if _, err := c.Writer.Write(chunk); err != nil {
			h.log.Debug("Audio stream client gone", "lesson_id", id, "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	if err := <-errc; err != nil {
		// Headers are already sent; all we can do is cut the stream.
		h.log.Error("Audio stream failed mid-flight", "lesson_id", id, "error", err)
	}
}

// POST /api/lessons/:id/timestamps
//
// Transcribes the stored audio and re-syncs the action timeline. Requires
// audio to exist; failures leave the draft timeline untouched.
func (h *LessonHandler) ExtractTimestamps(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid lesson id"))
		return
	}
	lesson, err := h.lessonSvc.ExtractAndResync(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if pipeline.IsTranscriptionError(err) {
			status = http.StatusBadGateway
		}
		RespondError(c, status, "transcription_failed", err)
		return
	}
	RespondOK(c, lesson)
}

// GET /api/lessons/:id/audio/manifest
//
// Returns the chunk playlist, synthesizing chunked audio on first call.
func (h *LessonHandler) AudioManifest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid lesson id"))
		return
	}
	manifest, err := h.audioSvc.Manifest(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	if manifest == nil {
		manifest, err = h.audioSvc.EnsureChunkedAudio(c.Request.Context(), id)
		if err != nil {
			status := http.StatusInternalServerError
			if pipeline.IsSynthesisError(err) {
				status = http.StatusBadGateway
			}
			RespondError(c, status, "synthesis_failed", err)
			return
		}
	}
	RespondOK(c, manifest)
}

type generateBatchBody struct {
	Topics      []string `json:"topics" binding:"required"`
	Interest    string   `json:"interest"`
	Proficiency string   `json:"proficiency"`
	GradeLevel  string   `json:"grade_level"`
}

// POST /api/lessons/generate/batch
//
// Progressive SSE response: each finished lesson streams down as its own
// event while later topics are still generating. Event names are lesson,
// error and complete; the stream always ends with complete.
func (h *LessonHandler) GenerateBatch(c *gin.Context) {
	var body generateBatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if len(body.Topics) == 0 {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("at least one topic required"))
		return
	}

	events := h.orchestrator.Run(c.Request.Context(), batch.Request{
		Topics:      body.Topics,
		Interest:    body.Interest,
		Proficiency: body.Proficiency,
		GradeLevel:  body.GradeLevel,
		UserID:      middleware.CurrentUserID(c),
	})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	flusher, _ := c.Writer.(http.Flusher)

	for ev := range events {
		msg := sse.Message{Event: string(ev.Type), Data: ev}
		if ev.BatchID != nil {
			msg.Channel = sse.BatchChannel(*ev.BatchID)
			// Mirror to other instances and any hub subscribers.
			h.hub.Broadcast(msg)
			if err := h.eventBus.Publish(c.Request.Context(), msg); err != nil {
				h.log.Warn("Bus publish failed", "error", err)
			}
		}
		if err := sse.WriteEvent(c.Writer, msg); err != nil {
			h.log.Debug("Batch SSE client gone", "error", err)
			// Keep draining so the orchestrator finishes and the session
			// record completes.
			for range events {
			}
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
