package repos

import (
	"context"
	"testing"
	"time"

	"github.com/skillbase/skillbase-backend/internal/repos/testutil"
)

func TestSubmissionRepoGetByIDFull(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewSubmissionRepo(db, testutil.Logger(t))

	school := testutil.SeedSchool(t, ctx, tx, "Founders School")
	course := testutil.SeedCourse(t, ctx, tx, school.ID, "incubation-2026", "Incubation Program 2026")
	startup := testutil.SeedStartup(t, ctx, tx, course.ID, "Acme")
	target := testutil.SeedTarget(t, ctx, tx, course.ID, "Pitch deck")
	user := testutil.SeedUser(t, ctx, tx, school.ID, testutil.PtrUUID(startup.ID), "ada@example.com")
	sub := testutil.SeedSubmission(t, ctx, tx, target.ID, startup.ID, user.ID, testutil.PtrTime(time.Now()))

	got, err := repo.GetByIDFull(ctx, tx, sub.ID)
	if err != nil {
		t.Fatalf("GetByIDFull: %v", err)
	}
	if got == nil {
		t.Fatalf("GetByIDFull: want row got nil")
	}
	if got.User == nil || got.User.ID != user.ID {
		t.Fatalf("preload user: want=%v got=%v", user.ID, got.User)
	}
	if got.Target == nil || got.Target.Course == nil || got.Target.Course.School == nil {
		t.Fatalf("preload chain incomplete: %+v", got.Target)
	}
	if got.Target.Course.School.ID != school.ID {
		t.Fatalf("preload school: want=%v got=%v", school.ID, got.Target.Course.School.ID)
	}
}

func TestSubmissionRepoHasEvaluationCriteria(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewSubmissionRepo(db, testutil.Logger(t))

	school := testutil.SeedSchool(t, ctx, tx, "Founders School")
	course := testutil.SeedCourse(t, ctx, tx, school.ID, "incubation-2026", "Incubation Program 2026")
	startup := testutil.SeedStartup(t, ctx, tx, course.ID, "Acme")
	user := testutil.SeedUser(t, ctx, tx, school.ID, testutil.PtrUUID(startup.ID), "ada@example.com")

	graded := testutil.SeedTarget(t, ctx, tx, course.ID, "Business plan")
	testutil.SeedCriterionForTarget(t, ctx, tx, school.ID, graded.ID, "Clarity")
	auto := testutil.SeedTarget(t, ctx, tx, course.ID, "Intro video")

	gradedSub := testutil.SeedSubmission(t, ctx, tx, graded.ID, startup.ID, user.ID, testutil.PtrTime(time.Now()))
	autoSub := testutil.SeedSubmission(t, ctx, tx, auto.ID, startup.ID, user.ID, testutil.PtrTime(time.Now()))

	has, err := repo.HasEvaluationCriteria(ctx, tx, gradedSub.ID)
	if err != nil {
		t.Fatalf("HasEvaluationCriteria: %v", err)
	}
	if !has {
		t.Fatalf("graded submission: want=true got=false")
	}

	has, err = repo.HasEvaluationCriteria(ctx, tx, autoSub.ID)
	if err != nil {
		t.Fatalf("HasEvaluationCriteria: %v", err)
	}
	if has {
		t.Fatalf("auto submission: want=false got=true")
	}
}

func TestSubmissionRepoCountRemainingLiveTargets(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewSubmissionRepo(db, testutil.Logger(t))

	school := testutil.SeedSchool(t, ctx, tx, "Founders School")
	course := testutil.SeedCourse(t, ctx, tx, school.ID, "incubation-2026", "Incubation Program 2026")
	startup := testutil.SeedStartup(t, ctx, tx, course.ID, "Acme")
	user := testutil.SeedUser(t, ctx, tx, school.ID, testutil.PtrUUID(startup.ID), "ada@example.com")

	first := testutil.SeedTarget(t, ctx, tx, course.ID, "First")
	second := testutil.SeedTarget(t, ctx, tx, course.ID, "Second")
	last := testutil.SeedTarget(t, ctx, tx, course.ID, "Last")

	// Only the first target is done, so finishing the last still leaves one.
	testutil.SeedSubmission(t, ctx, tx, first.ID, startup.ID, user.ID, testutil.PtrTime(time.Now()))

	remaining, err := repo.CountRemainingLiveTargets(ctx, tx, course.ID, startup.ID, last.ID)
	if err != nil {
		t.Fatalf("CountRemainingLiveTargets: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("remaining: want=1 got=%d", remaining)
	}

	testutil.SeedSubmission(t, ctx, tx, second.ID, startup.ID, user.ID, testutil.PtrTime(time.Now()))

	remaining, err = repo.CountRemainingLiveTargets(ctx, tx, course.ID, startup.ID, last.ID)
	if err != nil {
		t.Fatalf("CountRemainingLiveTargets: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("remaining: want=0 got=%d", remaining)
	}

	// Incomplete submissions do not count as done.
	other := testutil.SeedTarget(t, ctx, tx, course.ID, "Draft only")
	testutil.SeedSubmission(t, ctx, tx, other.ID, startup.ID, user.ID, nil)

	remaining, err = repo.CountRemainingLiveTargets(ctx, tx, course.ID, startup.ID, last.ID)
	if err != nil {
		t.Fatalf("CountRemainingLiveTargets: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("remaining with draft: want=1 got=%d", remaining)
	}
}
