package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/apperr"
	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/types"
)

type fakeOutboxRepo struct {
	sent   []uuid.UUID
	failed []uuid.UUID
	dead   []uuid.UUID
}

func (f *fakeOutboxRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.StatementOutbox) ([]*types.StatementOutbox, error) {
	return rows, nil
}

func (f *fakeOutboxRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.StatementOutbox, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.StatementOutbox, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.StatementOutbox, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkSent(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, cause error, attempts, maxAttempts int) error {
	if attempts >= maxAttempts {
		f.dead = append(f.dead, id)
	} else {
		f.failed = append(f.failed, id)
	}
	return nil
}

func (f *fakeOutboxRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

type fakeLRS struct {
	posted   []json.RawMessage
	failWith error
}

func (f *fakeLRS) PostStatement(ctx context.Context, statement json.RawMessage) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.posted = append(f.posted, statement)
	return nil
}

func testWorker(t *testing.T) (*Worker, *fakeOutboxRepo, *fakeLRS) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	repo := &fakeOutboxRepo{}
	lrsClient := &fakeLRS{}
	return NewWorker(nil, log, repo, lrsClient), repo, lrsClient
}

func testRow(attempts int) *types.StatementOutbox {
	return &types.StatementOutbox{
		ID:        uuid.New(),
		AgentKey:  "mailto:ada@example.com",
		Verb:      "http://adlnet.gov/expapi/verbs/completed",
		Statement: datatypes.JSON([]byte(`{"actor":{"mbox":"mailto:ada@example.com"}}`)),
		Status:    types.StatementStatusRunning,
		Attempts:  attempts,
	}
}

func TestDeliverMarksSent(t *testing.T) {
	w, repo, lrsClient := testWorker(t)
	row := testRow(1)

	w.deliver(context.Background(), 1, row, 5)

	if len(lrsClient.posted) != 1 {
		t.Fatalf("posted: want=1 got=%d", len(lrsClient.posted))
	}
	if len(repo.sent) != 1 || repo.sent[0] != row.ID {
		t.Fatalf("sent: %v", repo.sent)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("failed: %v", repo.failed)
	}
}

func TestDeliverMarksFailedForRetry(t *testing.T) {
	w, repo, lrsClient := testWorker(t)
	lrsClient.failWith = apperr.ErrDispatchFailed
	row := testRow(1)

	w.deliver(context.Background(), 1, row, 5)

	if len(repo.sent) != 0 {
		t.Fatalf("sent on failure: %v", repo.sent)
	}
	if len(repo.failed) != 1 || repo.failed[0] != row.ID {
		t.Fatalf("failed: %v", repo.failed)
	}
}

func TestDeliverExhaustedAttemptsGoDead(t *testing.T) {
	w, repo, lrsClient := testWorker(t)
	lrsClient.failWith = errors.New("lrs down")
	row := testRow(5)

	w.deliver(context.Background(), 1, row, 5)

	if len(repo.dead) != 1 || repo.dead[0] != row.ID {
		t.Fatalf("dead: %v", repo.dead)
	}
}
