package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flashcard carries SM-2 scheduling state alongside its content.
type Flashcard struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	LessonID     *uuid.UUID     `gorm:"type:uuid;index" json:"lesson_id,omitempty"`
	Topic        string         `gorm:"column:topic;not null" json:"topic"`
	Front        string         `gorm:"column:front;type:text;not null" json:"front"`
	Back         string         `gorm:"column:back;type:text;not null" json:"back"`
	Repetitions  int            `gorm:"column:repetitions;not null;default:0" json:"repetitions"`
	EaseFactor   float64        `gorm:"column:ease_factor;not null;default:2.5" json:"ease_factor"`
	IntervalDays int            `gorm:"column:interval_days;not null;default:0" json:"interval_days"`
	NextReviewAt time.Time      `gorm:"column:next_review_at" json:"next_review_at"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Flashcard) TableName() string { return "flashcard" }
