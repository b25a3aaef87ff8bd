// Package batch turns a multi-topic request into a progressive stream of
// lesson events. Topics run sequentially in request order; one failed topic
// never aborts the rest, and every run ends with exactly one complete event.
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/services"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

type EventType string

const (
	EventLesson   EventType = "lesson"
	EventError    EventType = "error"
	EventComplete EventType = "complete"
)

// Event is the tagged union sent to the client. Type selects which of the
// remaining fields are meaningful: lesson events carry Lesson/Index/Total,
// error events carry Topic/Message, complete events carry the tallies.
type Event struct {
	Type    EventType  `json:"type"`
	BatchID *uuid.UUID `json:"batch_id,omitempty"`

	Lesson *types.Lesson `json:"lesson,omitempty"`
	Index  int           `json:"index,omitempty"`
	Total  int           `json:"total,omitempty"`

	Topic   string `json:"topic,omitempty"`
	Message string `json:"message,omitempty"`

	Succeeded int `json:"succeeded,omitempty"`
	Requested int `json:"requested,omitempty"`
}

type Request struct {
	Topics      []string   `json:"topics"`
	Interest    string     `json:"interest"`
	Proficiency string     `json:"proficiency"`
	GradeLevel  string     `json:"grade_level"`
	UserID      *uuid.UUID `json:"-"`
}

// LessonGenerator is the slice of LessonService the orchestrator drives.
type LessonGenerator interface {
	Generate(ctx context.Context, req services.GenerateLessonRequest) (*types.Lesson, error)
	ExtractAndResync(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error)
}

// AudioPreparer is the slice of AudioService the orchestrator drives.
type AudioPreparer interface {
	EnsureChunkedAudio(ctx context.Context, lessonID uuid.UUID) (*types.AudioPlaylistManifest, error)
}

type Orchestrator struct {
	log      *logger.Logger
	lessons  LessonGenerator
	audio    AudioPreparer
	sessions *SessionStore
}

func NewOrchestrator(log *logger.Logger, lessons LessonGenerator, audio AudioPreparer, sessions *SessionStore) *Orchestrator {
	return &Orchestrator{
		log:      log.With("component", "BatchOrchestrator"),
		lessons:  lessons,
		audio:    audio,
		sessions: sessions,
	}
}

// Run starts the batch and returns the event channel. The channel is closed
// after the complete event. Cancellation is observed between topics only: a
// topic already started finishes server-side, and no later topic begins.
func (o *Orchestrator) Run(ctx context.Context, req Request) <-chan Event {
	out := make(chan Event, len(req.Topics)+2)

	if len(req.Topics) == 1 {
		go o.runSingle(ctx, req, out)
		return out
	}
	go o.runBatch(ctx, req, out)
	return out
}

// runSingle bypasses batch semantics: no batch id is minted and the lesson
// record carries no batch metadata.
func (o *Orchestrator) runSingle(ctx context.Context, req Request, out chan<- Event) {
	defer close(out)

	topic := req.Topics[0]
	lesson, err := o.prepareTopic(context.WithoutCancel(ctx), services.GenerateLessonRequest{
		Topic:       topic,
		Interest:    req.Interest,
		Proficiency: req.Proficiency,
		GradeLevel:  req.GradeLevel,
		UserID:      req.UserID,
	})
	succeeded := 0
	if err != nil {
		o.log.Error("Topic generation failed", "topic", topic, "error", err)
		out <- Event{Type: EventError, Topic: topic, Message: err.Error()}
	} else {
		succeeded = 1
		out <- Event{Type: EventLesson, Lesson: lesson, Index: 0, Total: 1}
	}
	out <- Event{Type: EventComplete, Succeeded: succeeded, Requested: 1}
}

func (o *Orchestrator) runBatch(ctx context.Context, req Request, out chan<- Event) {
	defer close(out)

	batchID := uuid.New()
	total := len(req.Topics)
	session := o.sessions.Start(batchID, req.Topics)

	// Cancellation is observed between topics only; a topic already started
	// runs to completion server-side, so its pipeline gets a detached ctx.
	topicCtx := context.WithoutCancel(ctx)

	succeeded := 0
	for i, topic := range req.Topics {
		if ctx.Err() != nil {
			o.log.Warn("Batch canceled, skipping remaining topics", "batch_id", batchID, "next_index", i)
			break
		}

		lesson, err := o.prepareTopic(topicCtx, services.GenerateLessonRequest{
			Topic:       topic,
			Interest:    req.Interest,
			Proficiency: req.Proficiency,
			GradeLevel:  req.GradeLevel,
			UserID:      req.UserID,
			BatchID:     &batchID,
			BatchIndex:  i,
			BatchTotal:  total,
		})
		if err != nil {
			o.log.Error("Topic generation failed", "batch_id", batchID, "topic", topic, "error", err)
			session.TopicFailed(topic)
			out <- Event{Type: EventError, BatchID: &batchID, Topic: topic, Message: err.Error()}
			continue
		}

		succeeded++
		session.TopicDone(topic)
		out <- Event{Type: EventLesson, BatchID: &batchID, Lesson: lesson, Index: i, Total: total}
	}

	session.Finish(succeeded)
	out <- Event{Type: EventComplete, BatchID: &batchID, Succeeded: succeeded, Requested: total}
	o.sessions.Delete(batchID)
	o.log.Info("Batch complete", "batch_id", batchID, "succeeded", succeeded, "requested", total)
}

// prepareTopic runs one topic's full pipeline. Generation failure fails the
// topic; audio and re-sync failures are logged and absorbed, the lesson is
// delivered with its draft timeline.
func (o *Orchestrator) prepareTopic(ctx context.Context, genReq services.GenerateLessonRequest) (*types.Lesson, error) {
	lesson, err := o.lessons.Generate(ctx, genReq)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, fmt.Errorf("generation returned no lesson")
	}

	if o.audio != nil {
		if _, err := o.audio.EnsureChunkedAudio(ctx, lesson.ID); err != nil {
			o.log.Warn("Audio synthesis failed, lesson stays in simulated mode",
				"lesson_id", lesson.ID, "error", err)
			return lesson, nil
		}
		if synced, err := o.lessons.ExtractAndResync(ctx, lesson.ID); err != nil {
			o.log.Warn("Timeline re-sync failed, lesson keeps draft timeline",
				"lesson_id", lesson.ID, "error", err)
		} else if synced != nil {
			lesson = synced
		}
	}
	return lesson, nil
}
