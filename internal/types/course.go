package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course carries both Name and Title. Registration statements report Name,
// completion statements report Title; the two fields are deliberately
// distinct.
type Course struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SchoolID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"school_id"`
	School      *School        `gorm:"constraint:OnDelete:CASCADE;foreignKey:SchoolID;references:ID" json:"school,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	EndsAt      *time.Time     `gorm:"column:ends_at" json:"ends_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }
