package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/types"
	"github.com/skillbase/skillbase-backend/internal/xapi"
)

type fakeOutboxRepo struct {
	rows []*types.StatementOutbox
}

func (f *fakeOutboxRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.StatementOutbox) ([]*types.StatementOutbox, error) {
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeOutboxRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.StatementOutbox, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.StatementOutbox, error) {
	return f.rows, nil
}

func (f *fakeOutboxRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.StatementOutbox, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkSent(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, cause error, attempts, maxAttempts int) error {
	return nil
}

func (f *fakeOutboxRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

func TestDispatchQueuesStatement(t *testing.T) {
	repo := &fakeOutboxRepo{}
	d := NewStatementDispatcher(nil, testLogger(t), repo)

	st, err := xapi.BuildStatement(xapi.Event{
		Kind:  xapi.EventTargetCompleted,
		Agent: xapi.NewAgent("Ada Lovelace", "ada@example.com"),
		Target: &xapi.TargetInfo{
			URL:   "https://school.example.com/targets/xyz",
			Title: "Pitch deck",
		},
	}, time.Now())
	if err != nil {
		t.Fatalf("BuildStatement: %v", err)
	}

	submissionID := uuid.New()
	if err := d.Dispatch(context.Background(), nil, st, &submissionID); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(repo.rows) != 1 {
		t.Fatalf("rows: want=1 got=%d", len(repo.rows))
	}
	row := repo.rows[0]
	if row.Status != types.StatementStatusQueued {
		t.Fatalf("status: want=%q got=%q", types.StatementStatusQueued, row.Status)
	}
	if row.AgentKey != "mailto:ada@example.com" {
		t.Fatalf("agent key: got=%q", row.AgentKey)
	}
	if row.Verb != st.Verb.ID {
		t.Fatalf("verb: want=%q got=%q", st.Verb.ID, row.Verb)
	}
	if row.SubmissionID == nil || *row.SubmissionID != submissionID {
		t.Fatalf("submission id: got=%v", row.SubmissionID)
	}

	var decoded xapi.Statement
	if err := json.Unmarshal(row.Statement, &decoded); err != nil {
		t.Fatalf("stored statement is not valid json: %v", err)
	}
	if decoded.Object.ID != st.Object.ID {
		t.Fatalf("stored object id: want=%q got=%q", st.Object.ID, decoded.Object.ID)
	}
}

func TestDispatchNilStatement(t *testing.T) {
	d := NewStatementDispatcher(nil, testLogger(t), &fakeOutboxRepo{})
	if err := d.Dispatch(context.Background(), nil, nil, nil); err == nil {
		t.Fatalf("want error for nil statement")
	}
}
