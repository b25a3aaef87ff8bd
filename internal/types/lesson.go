package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lesson is the central record of the pipeline. Identity is fixed at
// creation; audio_url, word_timestamps and board_actions_synced are filled in
// additively as pipeline stages complete. The draft board_actions sequence is
// never overwritten, so playback can always fall back to it.
type Lesson struct {
	ID                 uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             *uuid.UUID        `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User               *User             `gorm:"constraint:OnDelete:SET NULL;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Topic              string            `gorm:"column:topic;not null" json:"topic"`
	Title              string            `gorm:"column:title;not null" json:"title"`
	TailoredToInterest string            `gorm:"column:tailored_to_interest" json:"tailored_to_interest"`
	ProficiencyLevel   string            `gorm:"column:proficiency_level" json:"proficiency_level"`
	GradeLevel         string            `gorm:"column:grade_level" json:"grade_level"`
	NarrationScript    string            `gorm:"column:narration_script;type:text" json:"narration_script"`
	BoardActions       BoardActionList   `gorm:"column:board_actions;type:jsonb" json:"board_actions"`
	BoardActionsSynced BoardActionList   `gorm:"column:board_actions_synced;type:jsonb" json:"board_actions_synced,omitempty"`
	WordTimestamps     WordTimestampList `gorm:"column:word_timestamps;type:jsonb" json:"word_timestamps,omitempty"`
	AudioURL           *string           `gorm:"column:audio_url" json:"audio_url"`
	AudioManifest      datatypes.JSON    `gorm:"column:audio_manifest;type:jsonb" json:"audio_manifest,omitempty"`
	Duration           float64           `gorm:"column:duration" json:"duration"`
	BatchID            *uuid.UUID        `gorm:"type:uuid;column:batch_id;index" json:"batch_id,omitempty"`
	BatchIndex         int               `gorm:"column:batch_index" json:"batch_index"`
	BatchTotal         int               `gorm:"column:batch_total" json:"batch_total"`
	RawLLMOutput       datatypes.JSON    `gorm:"column:raw_llm_output;type:jsonb" json:"raw_llm_output,omitempty"`
	CreatedAt          time.Time         `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt          gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }
