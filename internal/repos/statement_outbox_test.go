package repos

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/skillbase/skillbase-backend/internal/repos/testutil"
	"github.com/skillbase/skillbase-backend/internal/types"
)

func TestStatementOutboxRepoClaimOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewStatementOutboxRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	stmt := datatypes.JSON([]byte(`{"actor":{}}`))

	alphaFirst := &types.StatementOutbox{
		ID:        uuid.New(),
		AgentKey:  "mailto:alpha@example.com",
		Verb:      "http://adlnet.gov/expapi/verbs/registered",
		Statement: stmt,
		Status:    types.StatementStatusQueued,
		CreatedAt: now.Add(-3 * time.Hour),
		UpdatedAt: now.Add(-3 * time.Hour),
	}
	alphaSecond := &types.StatementOutbox{
		ID:        uuid.New(),
		AgentKey:  "mailto:alpha@example.com",
		Verb:      "http://adlnet.gov/expapi/verbs/completed",
		Statement: stmt,
		Status:    types.StatementStatusQueued,
		CreatedAt: now.Add(-2 * time.Hour),
		UpdatedAt: now.Add(-2 * time.Hour),
	}
	beta := &types.StatementOutbox{
		ID:        uuid.New(),
		AgentKey:  "mailto:beta@example.com",
		Verb:      "http://adlnet.gov/expapi/verbs/registered",
		Statement: stmt,
		Status:    types.StatementStatusQueued,
		CreatedAt: now.Add(-1 * time.Hour),
		UpdatedAt: now.Add(-1 * time.Hour),
	}
	if _, err := repo.Create(ctx, tx, []*types.StatementOutbox{alphaFirst, alphaSecond, beta}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const maxAttempts = 5
	retryDelay := 30 * time.Second
	staleRunning := 30 * time.Minute

	first, err := repo.ClaimNextRunnable(ctx, tx, maxAttempts, retryDelay, staleRunning)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if first == nil || first.ID != alphaFirst.ID {
		t.Fatalf("first claim: want=%v got=%v", alphaFirst.ID, first)
	}
	if first.Status != types.StatementStatusRunning || first.Attempts != 1 {
		t.Fatalf("first claim state: status=%v attempts=%v", first.Status, first.Attempts)
	}

	// alphaSecond is behind a running row for the same agent, so beta is
	// next even though it is younger.
	second, err := repo.ClaimNextRunnable(ctx, tx, maxAttempts, retryDelay, staleRunning)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if second == nil || second.ID != beta.ID {
		t.Fatalf("second claim: want=%v got=%v", beta.ID, second)
	}

	third, err := repo.ClaimNextRunnable(ctx, tx, maxAttempts, retryDelay, staleRunning)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if third != nil {
		t.Fatalf("third claim: want=nil got=%v", third.ID)
	}

	if err := repo.MarkSent(ctx, tx, alphaFirst.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	fourth, err := repo.ClaimNextRunnable(ctx, tx, maxAttempts, retryDelay, staleRunning)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if fourth == nil || fourth.ID != alphaSecond.ID {
		t.Fatalf("fourth claim: want=%v got=%v", alphaSecond.ID, fourth)
	}
}

func TestStatementOutboxRepoStaleRunningReclaim(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewStatementOutboxRepo(db, testutil.Logger(t))

	const maxAttempts = 5
	retryDelay := 30 * time.Second
	staleRunning := 30 * time.Minute

	staleBeat := time.Now().UTC().Add(-time.Hour)
	stale := &types.StatementOutbox{
		ID:          uuid.New(),
		AgentKey:    "mailto:delta@example.com",
		Verb:        "http://adlnet.gov/expapi/verbs/completed",
		Statement:   datatypes.JSON([]byte(`{}`)),
		Status:      types.StatementStatusRunning,
		Attempts:    2,
		HeartbeatAt: &staleBeat,
	}
	if _, err := repo.Create(ctx, tx, []*types.StatementOutbox{stale}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claimed, err := repo.ClaimNextRunnable(ctx, tx, maxAttempts, retryDelay, staleRunning)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if claimed == nil || claimed.ID != stale.ID {
		t.Fatalf("stale reclaim: want=%v got=%v", stale.ID, claimed)
	}
	if claimed.Attempts != 3 {
		t.Fatalf("attempts after reclaim: want=3 got=%d", claimed.Attempts)
	}

	// A stale row already at the attempt cap must stay where it is: one
	// more claim would deliver it past maxAttempts.
	if err := repo.UpdateFields(ctx, tx, stale.ID, map[string]interface{}{
		"attempts":     maxAttempts,
		"heartbeat_at": staleBeat,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	exhausted, err := repo.ClaimNextRunnable(ctx, tx, maxAttempts, retryDelay, staleRunning)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if exhausted != nil {
		t.Fatalf("exhausted stale claim: want=nil got=%v", exhausted.ID)
	}
}

func TestStatementOutboxRepoMarkFailed(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewStatementOutboxRepo(db, testutil.Logger(t))

	row := &types.StatementOutbox{
		ID:        uuid.New(),
		AgentKey:  "mailto:gamma@example.com",
		Verb:      "http://adlnet.gov/expapi/verbs/completed",
		Statement: datatypes.JSON([]byte(`{}`)),
		Status:    types.StatementStatusRunning,
		Attempts:  2,
	}
	if _, err := repo.Create(ctx, tx, []*types.StatementOutbox{row}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.MarkFailed(ctx, tx, row.ID, context.DeadlineExceeded, 2, 5); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	got, err := repo.GetByIDs(ctx, tx, []uuid.UUID{row.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByIDs: rows=%d err=%v", len(got), err)
	}
	if got[0].Status != types.StatementStatusFailed {
		t.Fatalf("status after failure: want=%v got=%v", types.StatementStatusFailed, got[0].Status)
	}
	if !strings.Contains(got[0].LastError, "deadline") {
		t.Fatalf("last_error: got=%q", got[0].LastError)
	}

	// Exhausted attempts park the row as dead.
	if err := repo.MarkFailed(ctx, tx, row.ID, context.DeadlineExceeded, 5, 5); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	got, err = repo.GetByIDs(ctx, tx, []uuid.UUID{row.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByIDs: rows=%d err=%v", len(got), err)
	}
	if got[0].Status != types.StatementStatusDead {
		t.Fatalf("status after exhaustion: want=%v got=%v", types.StatementStatusDead, got[0].Status)
	}
}
