package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/repos"
	"github.com/skillbase/skillbase-backend/internal/types"
)

// CourseProgressService answers whether a submission closed out its course.
type CourseProgressService interface {
	WasLastTarget(ctx context.Context, tx *gorm.DB, submission *types.Submission) (bool, error)
}

type courseProgressService struct {
	db             *gorm.DB
	log            *logger.Logger
	submissionRepo repos.SubmissionRepo
}

func NewCourseProgressService(db *gorm.DB, baseLog *logger.Logger, submissionRepo repos.SubmissionRepo) CourseProgressService {
	return &courseProgressService{
		db:             db,
		log:            baseLog.With("service", "CourseProgressService"),
		submissionRepo: submissionRepo,
	}
}

// WasLastTarget is true when every other live target of the submission's
// course already has a completed submission from the same startup.
func (s *courseProgressService) WasLastTarget(ctx context.Context, tx *gorm.DB, submission *types.Submission) (bool, error) {
	if submission == nil || submission.Target == nil {
		return false, nil
	}
	remaining, err := s.submissionRepo.CountRemainingLiveTargets(ctx, tx, submission.Target.CourseID, submission.StartupID, submission.TargetID)
	if err != nil {
		return false, err
	}
	return remaining == 0, nil
}
