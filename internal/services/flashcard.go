package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/repos"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

type GenerateFlashcardsRequest struct {
	Topic    string     `json:"topic"`
	LessonID *uuid.UUID `json:"lesson_id"`
	NumCards int        `json:"num_cards"`
	UserID   *uuid.UUID `json:"-"`
}

type FlashcardService interface {
	Generate(ctx context.Context, req GenerateFlashcardsRequest) ([]*types.Flashcard, error)
	ListDue(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Flashcard, error)
	ListByLesson(ctx context.Context, lessonID uuid.UUID) ([]*types.Flashcard, error)
	// Review applies one SM-2 review and persists the new schedule.
	Review(ctx context.Context, cardID uuid.UUID, quality int) (*types.Flashcard, error)
	Delete(ctx context.Context, cardID uuid.UUID) error
}

type flashcardService struct {
	log      *logger.Logger
	ai       AIClient
	cardRepo repos.FlashcardRepo
	now      func() time.Time
}

func NewFlashcardService(log *logger.Logger, ai AIClient, cardRepo repos.FlashcardRepo) FlashcardService {
	return &flashcardService{
		log:      log.With("service", "FlashcardService"),
		ai:       ai,
		cardRepo: cardRepo,
		now:      time.Now,
	}
}

const flashcardSystemPrompt = `You write study flashcards. Respond with a single JSON object:
{"cards":[{"front":string,"back":string}]}
Fronts are short prompts; backs are concise answers.`

type cardContent struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

func (fs *flashcardService) Generate(ctx context.Context, req GenerateFlashcardsRequest) ([]*types.Flashcard, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("topic required")
	}
	n := req.NumCards
	if n <= 0 {
		n = 10
	}

	var contents []cardContent
	if fs.ai != nil {
		user := fmt.Sprintf("Write %d flashcards about %q.", n, req.Topic)
		obj, err := fs.ai.GenerateJSON(ctx, flashcardSystemPrompt, user)
		if err != nil {
			return nil, fmt.Errorf("generate flashcards: %w", err)
		}
		encoded, err := json.Marshal(obj["cards"])
		if err != nil {
			return nil, fmt.Errorf("encode cards: %w", err)
		}
		if err := json.Unmarshal(encoded, &contents); err != nil {
			return nil, fmt.Errorf("malformed cards: %w", err)
		}
		if len(contents) == 0 {
			return nil, fmt.Errorf("no cards in response")
		}
	} else {
		fs.log.Warn("No LLM client configured, generating mock flashcards", "topic", req.Topic)
		for i := 0; i < n; i++ {
			contents = append(contents, cardContent{
				Front: fmt.Sprintf("Key concept %d of %s", i+1, req.Topic),
				Back:  fmt.Sprintf("Definition of concept %d, as covered in the %s lesson.", i+1, req.Topic),
			})
		}
	}

	now := fs.now()
	cards := make([]*types.Flashcard, 0, len(contents))
	for _, c := range contents {
		if strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.Back) == "" {
			continue
		}
		cards = append(cards, &types.Flashcard{
			UserID:       req.UserID,
			LessonID:     req.LessonID,
			Topic:        req.Topic,
			Front:        c.Front,
			Back:         c.Back,
			EaseFactor:   2.5,
			NextReviewAt: now,
		})
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("no usable cards in response")
	}

	created, err := fs.cardRepo.Create(ctx, nil, cards)
	if err != nil {
		return nil, fmt.Errorf("persist flashcards: %w", err)
	}
	fs.log.Info("Flashcards generated", "topic", req.Topic, "count", len(created))
	return created, nil
}

func (fs *flashcardService) ListDue(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Flashcard, error) {
	return fs.cardRepo.ListDue(ctx, nil, userID, fs.now(), limit)
}

func (fs *flashcardService) ListByLesson(ctx context.Context, lessonID uuid.UUID) ([]*types.Flashcard, error) {
	return fs.cardRepo.ListByLesson(ctx, nil, lessonID)
}

func (fs *flashcardService) Review(ctx context.Context, cardID uuid.UUID, quality int) (*types.Flashcard, error) {
	card, err := fs.cardRepo.GetByID(ctx, nil, cardID)
	if err != nil {
		return nil, fmt.Errorf("load flashcard: %w", err)
	}
	if card == nil {
		return nil, fmt.Errorf("flashcard %s not found", cardID)
	}

	state := SM2State{
		Repetitions:  card.Repetitions,
		EaseFactor:   card.EaseFactor,
		IntervalDays: card.IntervalDays,
	}
	next, due, err := ReviewSM2(state, quality, fs.now())
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"repetitions":    next.Repetitions,
		"ease_factor":    next.EaseFactor,
		"interval_days":  next.IntervalDays,
		"next_review_at": due,
	}
	if err := fs.cardRepo.UpdateFields(ctx, nil, cardID, updates); err != nil {
		return nil, fmt.Errorf("persist review: %w", err)
	}

	card.Repetitions = next.Repetitions
	card.EaseFactor = next.EaseFactor
	card.IntervalDays = next.IntervalDays
	card.NextReviewAt = due
	return card, nil
}

func (fs *flashcardService) Delete(ctx context.Context, cardID uuid.UUID) error {
	return fs.cardRepo.Delete(ctx, nil, cardID)
}
