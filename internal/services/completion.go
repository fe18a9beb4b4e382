package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/apperr"
	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/repos"
	"github.com/skillbase/skillbase-backend/internal/xapi"
)

// CompletionService reacts to a submission being marked complete. Reviewed
// submissions (targets with evaluation criteria) are ignored; auto-completed
// ones emit a target-completion statement, and when the target was the last
// one left in the course, a course-completion statement plus certificate
// issuance for the submitter's startup.
//
// Statement emission is best-effort telemetry: a dispatch failure is logged
// and swallowed, never rolling back or blocking the completion itself.
type CompletionService interface {
	ProcessMarkedAsComplete(ctx context.Context, submissionID uuid.UUID) error
}

type completionService struct {
	db             *gorm.DB
	log            *logger.Logger
	submissionRepo repos.SubmissionRepo
	schoolRepo     repos.SchoolRepo
	progress       CourseProgressService
	dispatcher     StatementDispatcher
	certificates   CertificateService
	now            func() time.Time
}

func NewCompletionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	submissionRepo repos.SubmissionRepo,
	schoolRepo repos.SchoolRepo,
	progress CourseProgressService,
	dispatcher StatementDispatcher,
	certificates CertificateService,
) CompletionService {
	return &completionService{
		db:             db,
		log:            baseLog.With("service", "CompletionService"),
		submissionRepo: submissionRepo,
		schoolRepo:     schoolRepo,
		progress:       progress,
		dispatcher:     dispatcher,
		certificates:   certificates,
		now:            time.Now,
	}
}

func (s *completionService) ProcessMarkedAsComplete(ctx context.Context, submissionID uuid.UUID) error {
	submission, err := s.submissionRepo.GetByIDFull(ctx, nil, submissionID)
	if err != nil {
		return err
	}
	if submission == nil {
		return fmt.Errorf("%w: submission %s", apperr.ErrNotFound, submissionID)
	}
	if submission.User == nil || submission.Startup == nil || submission.Target == nil ||
		submission.Target.Course == nil || submission.Target.Course.School == nil {
		return fmt.Errorf("%w: submission %s is missing its target/course/school chain", apperr.ErrInvalidArgument, submissionID)
	}

	// Reviewed targets are graded by a coach; only auto-completed
	// submissions emit statements.
	graded, err := s.submissionRepo.HasEvaluationCriteria(ctx, nil, submissionID)
	if err != nil {
		return err
	}
	if graded {
		s.log.Debug("Submission has evaluation criteria, skipping", "submission_id", submissionID)
		return nil
	}

	domain, err := s.schoolRepo.GetPrimaryDomain(ctx, nil, submission.Target.Course.SchoolID)
	if err != nil {
		return err
	}
	if domain == nil {
		return fmt.Errorf("%w: school %s has no primary domain", apperr.ErrInvalidArgument, submission.Target.Course.SchoolID)
	}

	user := submission.User
	target := submission.Target
	course := target.Course
	agent := xapi.NewAgent(user.FullName(), user.Email)

	s.dispatchStatement(ctx, submission.ID, xapi.Event{
		Kind:  xapi.EventTargetCompleted,
		Agent: agent,
		Target: &xapi.TargetInfo{
			URL:         targetURL(domain.FQDN, target.ID),
			Title:       target.Title,
			Description: target.Description,
		},
	})

	wasLast, err := s.progress.WasLastTarget(ctx, nil, submission)
	if err != nil {
		return err
	}
	if !wasLast {
		return nil
	}

	s.dispatchStatement(ctx, submission.ID, xapi.Event{
		Kind:  xapi.EventCourseCompleted,
		Agent: agent,
		Course: &xapi.CourseInfo{
			URL:         courseURL(domain.FQDN, course.ID),
			Name:        course.Name,
			Title:       course.Title,
			Description: course.Description,
			EndsAt:      course.EndsAt,
		},
	})

	if _, err := s.certificates.IssueForStartup(ctx, nil, submission.Startup, course); err != nil {
		return err
	}
	return nil
}

// dispatchStatement builds and queues one statement, logging instead of
// failing: the completion decision is already made and never depends on
// telemetry.
func (s *completionService) dispatchStatement(ctx context.Context, submissionID uuid.UUID, ev xapi.Event) {
	statement, err := xapi.BuildStatement(ev, s.now())
	if err != nil {
		s.log.Warn("Statement build failed",
			"submission_id", submissionID,
			"event_kind", ev.Kind.String(),
			"error", err,
		)
		return
	}
	if err := s.dispatcher.Dispatch(ctx, nil, statement, &submissionID); err != nil {
		s.log.Warn("Statement dispatch failed",
			"submission_id", submissionID,
			"event_kind", ev.Kind.String(),
			"error", err,
		)
	}
}

func courseURL(fqdn string, id uuid.UUID) string {
	return fmt.Sprintf("https://%s/courses/%s", fqdn, id)
}

func targetURL(fqdn string, id uuid.UUID) string {
	return fmt.Sprintf("https://%s/targets/%s", fqdn, id)
}
