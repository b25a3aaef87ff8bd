package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Quiz holds generated questions for a lesson topic. Questions stay as a
// JSONB document; the backend never interprets individual options.
type Quiz struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	LessonID  *uuid.UUID     `gorm:"type:uuid;index" json:"lesson_id,omitempty"`
	Lesson    *Lesson        `gorm:"constraint:OnDelete:SET NULL;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	Topic     string         `gorm:"column:topic;not null" json:"topic"`
	Questions datatypes.JSON `gorm:"column:questions;type:jsonb" json:"questions"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Quiz) TableName() string { return "quiz" }
