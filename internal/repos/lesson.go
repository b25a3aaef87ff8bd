package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error)
	GetByID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.Lesson, error)
	List(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, offset, limit int) ([]*types.Lesson, error)
	ListByBatch(ctx context.Context, tx *gorm.DB, batchID uuid.UUID) ([]*types.Lesson, error)
	// UpdateFields applies an additive partial update; pipeline stages use it
	// to fill in audio_url, word_timestamps and board_actions_synced without
	// touching the draft columns.
	UpdateFields(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (lr *lessonRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return lr.db
}

func (lr *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error) {
	if err := lr.conn(tx).WithContext(ctx).Create(lesson).Error; err != nil {
		return nil, err
	}
	return lesson, nil
}

func (lr *lessonRepo) GetByID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.Lesson, error) {
	var lesson types.Lesson
	err := lr.conn(tx).WithContext(ctx).Where("id = ?", lessonID).First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (lr *lessonRepo) List(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, offset, limit int) ([]*types.Lesson, error) {
	if limit <= 0 {
		limit = 20
	}
	q := lr.conn(tx).WithContext(ctx).Model(&types.Lesson{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var lessons []*types.Lesson
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (lr *lessonRepo) ListByBatch(ctx context.Context, tx *gorm.DB, batchID uuid.UUID) ([]*types.Lesson, error) {
	var lessons []*types.Lesson
	if err := lr.conn(tx).WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("batch_index ASC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (lr *lessonRepo) UpdateFields(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, updates map[string]interface{}) error {
	return lr.conn(tx).WithContext(ctx).
		Model(&types.Lesson{}).
		Where("id = ?", lessonID).
		Updates(updates).Error
}

func (lr *lessonRepo) Delete(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) error {
	return lr.conn(tx).WithContext(ctx).
		Where("id = ?", lessonID).
		Delete(&types.Lesson{}).Error
}
