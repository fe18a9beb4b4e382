package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/apperr"
	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/repos"
	"github.com/skillbase/skillbase-backend/internal/types"
	"github.com/skillbase/skillbase-backend/internal/xapi"
)

// StatementDispatcher is the single point all statement-emission flows
// converge on. Dispatch never talks to the statement store inline: it
// serializes the statement into the outbox, where the statement worker
// delivers it asynchronously in per-agent FIFO order. The triggering
// request therefore never blocks on statement-store latency.
type StatementDispatcher interface {
	Dispatch(ctx context.Context, tx *gorm.DB, statement *xapi.Statement, submissionID *uuid.UUID) error
}

type statementDispatcher struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.StatementOutboxRepo
}

func NewStatementDispatcher(db *gorm.DB, baseLog *logger.Logger, repo repos.StatementOutboxRepo) StatementDispatcher {
	return &statementDispatcher{
		db:   db,
		log:  baseLog.With("service", "StatementDispatcher"),
		repo: repo,
	}
}

func (d *statementDispatcher) Dispatch(ctx context.Context, tx *gorm.DB, statement *xapi.Statement, submissionID *uuid.UUID) error {
	if statement == nil {
		return fmt.Errorf("%w: nil statement", apperr.ErrInvalidArgument)
	}

	payload, err := json.Marshal(statement)
	if err != nil {
		return fmt.Errorf("%w: serialize statement: %v", apperr.ErrDispatchFailed, err)
	}

	row := &types.StatementOutbox{
		ID:           uuid.New(),
		AgentKey:     statement.Actor.Key(),
		SubmissionID: submissionID,
		Verb:         statement.Verb.ID,
		Statement:    datatypes.JSON(payload),
		Status:       types.StatementStatusQueued,
	}

	if _, err := d.repo.Create(ctx, tx, []*types.StatementOutbox{row}); err != nil {
		return fmt.Errorf("%w: enqueue statement: %v", apperr.ErrDispatchFailed, err)
	}

	d.log.Debug("Statement queued",
		"outbox_id", row.ID,
		"agent_key", row.AgentKey,
		"verb", row.Verb,
	)
	return nil
}
