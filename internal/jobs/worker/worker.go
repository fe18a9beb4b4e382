package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/clients/lrs"
	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/repos"
	"github.com/skillbase/skillbase-backend/internal/types"
	"github.com/skillbase/skillbase-backend/internal/utils"
)

// Worker drains the statement outbox to the learning record store. Each loop
// claims at most one runnable row; rows sharing an agent key are claimed in
// insertion order, so one slow agent never reorders another agent's history.
type Worker struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.StatementOutboxRepo
	lrs  lrs.Client
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.StatementOutboxRepo, lrsClient lrs.Client) *Worker {
	return &Worker{
		db:   db,
		log:  baseLog.With("component", "StatementWorker"),
		repo: repo,
		lrs:  lrsClient,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 4, w.log)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("Starting statement worker pool", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	const maxAttempts = 5
	retryDelay := 30 * time.Second
	staleRunning := 30 * time.Minute

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			row, err := w.repo.ClaimNextRunnable(ctx, w.db, maxAttempts, retryDelay, staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
				continue
			}
			if row == nil {
				continue
			}
			w.deliver(ctx, workerID, row, maxAttempts)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, workerID int, row *types.StatementOutbox, maxAttempts int) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Statement delivery panic",
				"worker_id", workerID,
				"outbox_id", row.ID,
				"panic", r,
			)
			w.fail(ctx, row, fmt.Errorf("panic during delivery: %v", r), maxAttempts)
		}
	}()

	if err := w.lrs.PostStatement(ctx, json.RawMessage(row.Statement)); err != nil {
		w.log.Warn("Statement delivery failed",
			"worker_id", workerID,
			"outbox_id", row.ID,
			"agent_key", row.AgentKey,
			"attempts", row.Attempts,
			"error", err,
		)
		w.fail(ctx, row, err, maxAttempts)
		return
	}

	if err := w.repo.MarkSent(ctx, nil, row.ID); err != nil {
		w.log.Error("MarkSent failed", "worker_id", workerID, "outbox_id", row.ID, "error", err)
		return
	}
	w.log.Info("Statement delivered",
		"worker_id", workerID,
		"outbox_id", row.ID,
		"agent_key", row.AgentKey,
		"verb", row.Verb,
	)
}

func (w *Worker) fail(ctx context.Context, row *types.StatementOutbox, cause error, maxAttempts int) {
	if err := w.repo.MarkFailed(ctx, nil, row.ID, cause, row.Attempts, maxAttempts); err != nil {
		w.log.Error("MarkFailed failed", "outbox_id", row.ID, "error", err)
	}
}
