package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Startup struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course    *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Website   string         `gorm:"column:website" json:"website"`
	About     string         `gorm:"column:about" json:"about"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Startup) TableName() string { return "startup" }
