package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SchoolID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"school_id"`
	School              *School    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SchoolID;references:ID" json:"school,omitempty"`
	StartupID           *uuid.UUID `gorm:"type:uuid;index" json:"startup_id,omitempty"`
	Startup             *Startup   `gorm:"constraint:OnDelete:SET NULL;foreignKey:StartupID;references:ID" json:"startup,omitempty"`
	Email               string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordDigest      string     `gorm:"column:password_digest" json:"-"`
	FirstName           string     `gorm:"column:first_name;not null" json:"first_name"`
	LastName            string     `gorm:"column:last_name;not null" json:"last_name"`
	ResetPasswordToken  string     `gorm:"column:reset_password_token;index" json:"-"`
	ResetPasswordSentAt *time.Time `gorm:"column:reset_password_sent_at" json:"-"`
	CreatedAt           time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
