package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type IssuedCertificate struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StartupID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"startup_id"`
	Startup      *Startup       `gorm:"constraint:OnDelete:CASCADE;foreignKey:StartupID;references:ID" json:"startup,omitempty"`
	CourseID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course       *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	SerialNumber string         `gorm:"column:serial_number;not null;uniqueIndex" json:"serial_number"`
	ImageKey     string         `gorm:"column:image_key" json:"image_key"`
	ImageURL     string         `gorm:"column:image_url" json:"image_url"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	IssuedAt     time.Time      `gorm:"column:issued_at;not null" json:"issued_at"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (IssuedCertificate) TableName() string { return "issued_certificate" }
