package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/types"
)

type SubmissionRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Submission, error)
	// GetByIDFull loads the submission with its target, course, school and
	// primary learner preloaded. The completion workflow needs the whole
	// chain to build statement URLs.
	GetByIDFull(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Submission, error)
	HasEvaluationCriteria(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) (bool, error)
	CountRemainingLiveTargets(ctx context.Context, tx *gorm.DB, courseID, startupID, excludeTargetID uuid.UUID) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, submissions []*types.Submission) ([]*types.Submission, error)
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{db: db, log: baseLog.With("repo", "SubmissionRepo")}
}

func (r *submissionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Submission, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var submission types.Submission
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepo) GetByIDFull(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Submission, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var submission types.Submission
	err := transaction.WithContext(ctx).
		Preload("User").
		Preload("Startup").
		Preload("Target").
		Preload("Target.Course").
		Preload("Target.Course.School").
		Where("id = ?", id).
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepo) HasEvaluationCriteria(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if submissionID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.TargetEvaluationCriterion{}).
		Joins("JOIN submission ON submission.target_id = target_evaluation_criterion.target_id").
		Where("submission.id = ?", submissionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountRemainingLiveTargets counts targets of the course, excluding the one
// just submitted, that have no completed submission from the startup yet.
func (r *submissionRepo) CountRemainingLiveTargets(ctx context.Context, tx *gorm.DB, courseID, startupID, excludeTargetID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Target{}).
		Where("target.course_id = ?", courseID).
		Where("target.id <> ?", excludeTargetID).
		Where(`NOT EXISTS (
			SELECT 1 FROM submission
			WHERE submission.target_id = target.id
				AND submission.startup_id = ?
				AND submission.marked_as_complete_at IS NOT NULL
				AND submission.deleted_at IS NULL
		)`, startupID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *submissionRepo) Create(ctx context.Context, tx *gorm.DB, submissions []*types.Submission) ([]*types.Submission, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(submissions) == 0 {
		return []*types.Submission{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
