package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email            string         `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash     string         `gorm:"column:password_hash;not null" json:"-"`
	FullName         string         `gorm:"column:full_name" json:"full_name"`
	Interest         string         `gorm:"column:interest" json:"interest"`
	ProficiencyLevel string         `gorm:"column:proficiency_level" json:"proficiency_level"`
	GradeLevel       string         `gorm:"column:grade_level" json:"grade_level"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
