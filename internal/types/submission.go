package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Submission struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TargetID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"target_id"`
	Target             *Target        `gorm:"constraint:OnDelete:CASCADE;foreignKey:TargetID;references:ID" json:"target,omitempty"`
	StartupID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"startup_id"`
	Startup            *Startup       `gorm:"constraint:OnDelete:CASCADE;foreignKey:StartupID;references:ID" json:"startup,omitempty"`
	UserID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User               *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Description        string         `gorm:"column:description" json:"description"`
	MarkedAsCompleteAt *time.Time     `gorm:"column:marked_as_complete_at" json:"marked_as_complete_at,omitempty"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Submission) TableName() string { return "submission" }
