package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatementStatusQueued  = "queued"
	StatementStatusRunning = "running"
	StatementStatusSent    = "sent"
	StatementStatusFailed  = "failed"
	StatementStatusDead    = "dead"
)

// StatementOutbox is a deferred xAPI statement waiting for delivery to the
// statement store. Rows for the same agent key form a FIFO lane: a row may
// only be claimed once every older row of that agent is sent or dead.
type StatementOutbox struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AgentKey     string         `gorm:"column:agent_key;not null;index" json:"agent_key"`
	SubmissionID *uuid.UUID     `gorm:"type:uuid;index" json:"submission_id,omitempty"`
	Verb         string         `gorm:"column:verb;not null" json:"verb"`
	Statement    datatypes.JSON `gorm:"column:statement;type:jsonb;not null" json:"statement"`
	Status       string         `gorm:"column:status;not null;default:queued;index" json:"status"`
	Attempts     int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError    string         `gorm:"column:last_error" json:"last_error,omitempty"`
	LastErrorAt  *time.Time     `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
	LockedAt     *time.Time     `gorm:"column:locked_at" json:"locked_at,omitempty"`
	HeartbeatAt  *time.Time     `gorm:"column:heartbeat_at" json:"heartbeat_at,omitempty"`
	SentAt       *time.Time     `gorm:"column:sent_at" json:"sent_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (StatementOutbox) TableName() string { return "statement_outbox" }
