package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/types"
)

type StatementOutboxRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.StatementOutbox) ([]*types.StatementOutbox, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.StatementOutbox, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.StatementOutbox, error)
	ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.StatementOutbox, error)
	MarkSent(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, cause error, attempts, maxAttempts int) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type statementOutboxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatementOutboxRepo(db *gorm.DB, baseLog *logger.Logger) StatementOutboxRepo {
	return &statementOutboxRepo{
		db:  db,
		log: baseLog.With("repo", "StatementOutboxRepo"),
	}
}

func (r *statementOutboxRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.StatementOutbox) ([]*types.StatementOutbox, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.StatementOutbox{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *statementOutboxRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.StatementOutbox, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.StatementOutbox
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *statementOutboxRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.StatementOutbox, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.StatementOutbox
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ClaimNextRunnable picks the oldest deliverable statement and flips it to
// running. A row is deliverable only when no older non-terminal row exists
// for the same agent key, so statements for one subject always leave in
// enqueue order even across concurrent workers.
func (r *statementOutboxRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.StatementOutbox, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.StatementOutbox
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var row types.StatementOutbox
		q := txx.Where(`
			(
				status = ?
				OR (
					status = ?
					AND attempts < ?
					AND (last_error_at IS NULL OR last_error_at < ?)
				)
				OR (
					status = ?
					AND attempts < ?
					AND heartbeat_at IS NOT NULL
					AND heartbeat_at < ?
				)
			)
			AND NOT EXISTS (
				SELECT 1 FROM statement_outbox older
				WHERE older.agent_key = statement_outbox.agent_key
					AND older.created_at < statement_outbox.created_at
					AND older.status NOT IN (?, ?)
			)
		`, types.StatementStatusQueued,
			types.StatementStatusFailed, maxAttempts, retryCutoff,
			types.StatementStatusRunning, maxAttempts, staleCutoff,
			types.StatementStatusSent, types.StatementStatusDead).
			Order("created_at ASC").
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		qErr := q.First(&row).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.StatementOutbox{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"status":       types.StatementStatusRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			}).Error
		if uErr != nil {
			return uErr
		}
		row.Status = types.StatementStatusRunning
		row.Attempts++
		claimed = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *statementOutboxRepo) MarkSent(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	now := time.Now()
	return r.UpdateFields(ctx, tx, id, map[string]interface{}{
		"status":     types.StatementStatusSent,
		"sent_at":    now,
		"updated_at": now,
	})
}

func (r *statementOutboxRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, cause error, attempts, maxAttempts int) error {
	now := time.Now()
	status := types.StatementStatusFailed
	if attempts >= maxAttempts {
		status = types.StatementStatusDead
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.UpdateFields(ctx, tx, id, map[string]interface{}{
		"status":        status,
		"last_error":    msg,
		"last_error_at": now,
		"updated_at":    now,
	})
}

func (r *statementOutboxRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.StatementOutbox{}).
		Where("id = ?", id).
		Updates(updates).Error
}
