package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

type FlashcardRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cards []*types.Flashcard) ([]*types.Flashcard, error)
	GetByID(ctx context.Context, tx *gorm.DB, cardID uuid.UUID) (*types.Flashcard, error)
	ListDue(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time, limit int) ([]*types.Flashcard, error)
	ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.Flashcard, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, cardID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, cardID uuid.UUID) error
}

type flashcardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlashcardRepo(db *gorm.DB, baseLog *logger.Logger) FlashcardRepo {
	return &flashcardRepo{db: db, log: baseLog.With("repo", "FlashcardRepo")}
}

func (fr *flashcardRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return fr.db
}

func (fr *flashcardRepo) Create(ctx context.Context, tx *gorm.DB, cards []*types.Flashcard) ([]*types.Flashcard, error) {
	if len(cards) == 0 {
		return cards, nil
	}
	if err := fr.conn(tx).WithContext(ctx).Create(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (fr *flashcardRepo) GetByID(ctx context.Context, tx *gorm.DB, cardID uuid.UUID) (*types.Flashcard, error) {
	var card types.Flashcard
	err := fr.conn(tx).WithContext(ctx).Where("id = ?", cardID).First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (fr *flashcardRepo) ListDue(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time, limit int) ([]*types.Flashcard, error) {
	if limit <= 0 {
		limit = 50
	}
	var cards []*types.Flashcard
	if err := fr.conn(tx).WithContext(ctx).
		Where("user_id = ? AND next_review_at <= ?", userID, now).
		Order("next_review_at ASC").
		Limit(limit).
		Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (fr *flashcardRepo) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.Flashcard, error) {
	var cards []*types.Flashcard
	if err := fr.conn(tx).WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at ASC").
		Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (fr *flashcardRepo) UpdateFields(ctx context.Context, tx *gorm.DB, cardID uuid.UUID, updates map[string]interface{}) error {
	return fr.conn(tx).WithContext(ctx).
		Model(&types.Flashcard{}).
		Where("id = ?", cardID).
		Updates(updates).Error
}

func (fr *flashcardRepo) Delete(ctx context.Context, tx *gorm.DB, cardID uuid.UUID) error {
	return fr.conn(tx).WithContext(ctx).
		Where("id = ?", cardID).
		Delete(&types.Flashcard{}).Error
}
