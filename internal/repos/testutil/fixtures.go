package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/types"
)

func SeedSchool(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.School {
	tb.Helper()
	s := &types.School{
		ID:   uuid.New(),
		Name: name,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed school: %v", err)
	}
	return s
}

func SeedDomain(tb testing.TB, ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, fqdn string, primary bool) *types.Domain {
	tb.Helper()
	d := &types.Domain{
		ID:       uuid.New(),
		SchoolID: schoolID,
		FQDN:     fqdn,
		Primary:  primary,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed domain: %v", err)
	}
	return d
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, name, title string) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:       uuid.New(),
		SchoolID: schoolID,
		Name:     name,
		Title:    title,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedStartup(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, name string) *types.Startup {
	tb.Helper()
	s := &types.Startup{
		ID:       uuid.New(),
		CourseID: courseID,
		Name:     name,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed startup: %v", err)
	}
	return s
}

func SeedTarget(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, title string) *types.Target {
	tb.Helper()
	target := &types.Target{
		ID:       uuid.New(),
		CourseID: courseID,
		Title:    title,
	}
	if err := tx.WithContext(ctx).Create(target).Error; err != nil {
		tb.Fatalf("seed target: %v", err)
	}
	return target
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, startupID *uuid.UUID, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		StartupID: startupID,
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, targetID, startupID, userID uuid.UUID, completedAt *time.Time) *types.Submission {
	tb.Helper()
	s := &types.Submission{
		ID:                 uuid.New(),
		TargetID:           targetID,
		StartupID:          startupID,
		UserID:             userID,
		MarkedAsCompleteAt: completedAt,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return s
}

func SeedCriterionForTarget(tb testing.TB, ctx context.Context, tx *gorm.DB, schoolID, targetID uuid.UUID, name string) *types.EvaluationCriterion {
	tb.Helper()
	criterion := &types.EvaluationCriterion{
		ID:       uuid.New(),
		SchoolID: schoolID,
		Name:     name,
		MaxGrade: 3,
	}
	if err := tx.WithContext(ctx).Create(criterion).Error; err != nil {
		tb.Fatalf("seed criterion: %v", err)
	}
	link := &types.TargetEvaluationCriterion{
		ID:                    uuid.New(),
		TargetID:              targetID,
		EvaluationCriterionID: criterion.ID,
	}
	if err := tx.WithContext(ctx).Create(link).Error; err != nil {
		tb.Fatalf("seed target criterion: %v", err)
	}
	return criterion
}

func PtrTime(t time.Time) *time.Time { return &t }

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }
