package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Target struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course      *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Target) TableName() string { return "target" }

type EvaluationCriterion struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SchoolID  uuid.UUID `gorm:"type:uuid;not null;index" json:"school_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	MaxGrade  int       `gorm:"column:max_grade;not null;default:3" json:"max_grade"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (EvaluationCriterion) TableName() string { return "evaluation_criterion" }

// TargetEvaluationCriterion links a target to the criteria reviewers grade it
// on. A target without rows here is auto-completed rather than reviewed.
type TargetEvaluationCriterion struct {
	ID                    uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TargetID              uuid.UUID `gorm:"type:uuid;not null;index" json:"target_id"`
	EvaluationCriterionID uuid.UUID `gorm:"type:uuid;not null;index" json:"evaluation_criterion_id"`
	CreatedAt             time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (TargetEvaluationCriterion) TableName() string { return "target_evaluation_criterion" }
