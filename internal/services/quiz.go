package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/repos"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

type GenerateQuizRequest struct {
	Topic       string     `json:"topic"`
	LessonID    *uuid.UUID `json:"lesson_id"`
	NumQuestion int        `json:"num_questions"`
	UserID      *uuid.UUID `json:"-"`
}

type QuizService interface {
	Generate(ctx context.Context, req GenerateQuizRequest) (*types.Quiz, error)
	Get(ctx context.Context, quizID uuid.UUID) (*types.Quiz, error)
	ListByLesson(ctx context.Context, lessonID uuid.UUID) ([]*types.Quiz, error)
	Delete(ctx context.Context, quizID uuid.UUID) error
}

type quizService struct {
	log      *logger.Logger
	ai       AIClient
	quizRepo repos.QuizRepo
}

func NewQuizService(log *logger.Logger, ai AIClient, quizRepo repos.QuizRepo) QuizService {
	return &quizService{
		log:      log.With("service", "QuizService"),
		ai:       ai,
		quizRepo: quizRepo,
	}
}

const quizSystemPrompt = `You write multiple-choice quizzes. Respond with a single JSON object:
{"questions":[{"question":string,"options":[string,string,string,string],"answer_index":number,"explanation":string}]}
answer_index is the zero-based index of the correct option.`

func (qs *quizService) Generate(ctx context.Context, req GenerateQuizRequest) (*types.Quiz, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("topic required")
	}
	n := req.NumQuestion
	if n <= 0 {
		n = 5
	}

	var questions datatypes.JSON
	if qs.ai != nil {
		user := fmt.Sprintf("Write %d questions about %q.", n, req.Topic)
		obj, err := qs.ai.GenerateJSON(ctx, quizSystemPrompt, user)
		if err != nil {
			return nil, fmt.Errorf("generate quiz: %w", err)
		}
		raw, ok := obj["questions"]
		if !ok {
			return nil, fmt.Errorf("quiz response missing questions")
		}
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode questions: %w", err)
		}
		questions = datatypes.JSON(encoded)
	} else {
		qs.log.Warn("No LLM client configured, generating mock quiz", "topic", req.Topic)
		questions = mockQuestions(req.Topic, n)
	}

	quiz := &types.Quiz{
		UserID:    req.UserID,
		LessonID:  req.LessonID,
		Topic:     req.Topic,
		Questions: questions,
	}
	created, err := qs.quizRepo.Create(ctx, nil, quiz)
	if err != nil {
		return nil, fmt.Errorf("persist quiz: %w", err)
	}
	qs.log.Info("Quiz generated", "quiz_id", created.ID, "topic", req.Topic)
	return created, nil
}

func (qs *quizService) Get(ctx context.Context, quizID uuid.UUID) (*types.Quiz, error) {
	return qs.quizRepo.GetByID(ctx, nil, quizID)
}

func (qs *quizService) ListByLesson(ctx context.Context, lessonID uuid.UUID) ([]*types.Quiz, error) {
	return qs.quizRepo.ListByLesson(ctx, nil, lessonID)
}

func (qs *quizService) Delete(ctx context.Context, quizID uuid.UUID) error {
	return qs.quizRepo.Delete(ctx, nil, quizID)
}

func mockQuestions(topic string, n int) datatypes.JSON {
	type q struct {
		Question    string   `json:"question"`
		Options     []string `json:"options"`
		AnswerIndex int      `json:"answer_index"`
		Explanation string   `json:"explanation"`
	}
	out := make([]q, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, q{
			Question:    fmt.Sprintf("Practice question %d about %s?", i+1, topic),
			Options:     []string{"Option A", "Option B", "Option C", "Option D"},
			AnswerIndex: i % 4,
			Explanation: fmt.Sprintf("Review the section of the lesson covering %s.", topic),
		})
	}
	raw, _ := json.Marshal(out)
	return datatypes.JSON(raw)
}
