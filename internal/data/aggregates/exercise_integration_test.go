package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/iterations-backend/internal/data/repos"
	repotest "github.com/yungbote/iterations-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

func newExerciseAggregateForTest(t *testing.T, db *gorm.DB, runner TxRunner) domainagg.ExerciseAggregate {
	t.Helper()
	log := repotest.Logger(t)
	if runner == nil {
		runner = NewGormTxRunner(db)
	}
	return NewExerciseAggregate(ExerciseAggregateDeps{
		Base:        BaseDeps{DB: db, Log: log, Runner: runner, CASGuard: NewCASGuard(db)},
		Exercises:   repos.NewUserExerciseRepo(db, log),
		Submissions: repos.NewSubmissionRepo(db, log),
	})
}

func TestExerciseAggregateCloseAndReopenInLockstep(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	iterations, r := newIterationAggregateForTest(t, tx, nil)
	exercises := newExerciseAggregateForTest(t, tx, nil)
	homework := repos.NewHomeworkRepo(tx, repotest.Logger(t))

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	u := repotest.SeedUser(t, ctx, tx, "closer")
	accept(t, ctx, iterations, u.ID, "v1", time.Now().UTC().Add(-time.Hour))
	v2 := accept(t, ctx, iterations, u.ID, "v2", time.Now().UTC().Add(-time.Minute))

	at := time.Now().UTC().Truncate(time.Second)
	closed, err := exercises.Close(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: leap, At: at})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Exercise.State != learning.StateDone || closed.Latest == nil || closed.Latest.ID != v2.Submission.ID {
		t.Fatalf("close result: %+v latest=%+v", closed.Exercise, closed.Latest)
	}

	report, err := homework.ExerciseStates(dbc, u.ID)
	if err != nil {
		t.Fatalf("ExerciseStates: %v", err)
	}
	if got := report["ruby"]; len(got) != 1 || got[0].Slug != "leap" || got[0].State != learning.StateDone {
		t.Fatalf("report after close: %+v", report)
	}
	latest, err := r.submissions.GetByID(dbc, v2.Submission.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if latest.State != learning.StateDone || latest.DoneAt == nil || !latest.DoneAt.Equal(at) {
		t.Fatalf("latest after close: state=%s done_at=%v", latest.State, latest.DoneAt)
	}

	// Closing twice is a no-op.
	if _, err := exercises.Close(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: leap}); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	reopened, err := exercises.Reopen(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: leap})
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if reopened.Exercise.State != learning.StatePending || reopened.Latest.State != learning.StatePending {
		t.Fatalf("reopen result: ex=%s latest=%s", reopened.Exercise.State, reopened.Latest.State)
	}
	report, err = homework.ExerciseStates(dbc, u.ID)
	if err != nil {
		t.Fatalf("ExerciseStates: %v", err)
	}
	if got := report["ruby"]; len(got) != 1 || got[0].State != learning.StatePending {
		t.Fatalf("report after reopen: %+v", report)
	}
	latest, err = r.submissions.GetByID(dbc, v2.Submission.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if latest.State != learning.StatePending || latest.DoneAt == nil {
		t.Fatalf("latest after reopen: state=%s done_at=%v", latest.State, latest.DoneAt)
	}
	v1, err := r.submissions.GetByVersion(dbc, v2.Exercise.ID, 1)
	if err != nil {
		t.Fatalf("GetByVersion: %v", err)
	}
	if v1.State != learning.StateSuperseded {
		t.Fatalf("close/reopen must only touch the latest iteration, v1=%s", v1.State)
	}
}

func TestExerciseAggregateReopenRejectsHibernating(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	exercises := newExerciseAggregateForTest(t, tx, nil)

	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, tx, "sleepy")
	ex := repotest.SeedExercise(t, ctx, tx, u.ID, leap.TrackID, leap.Slug, learning.StateHibernating)
	repotest.SeedSubmission(t, ctx, tx, ex, learning.StateHibernating, time.Now().UTC())

	_, err := exercises.Reopen(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: leap})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict, got=%v", err)
	}
	_, err = exercises.Close(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: learning.Problem{TrackID: "ruby", Slug: "bob"}})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("close without lineage: got=%v", err)
	}
	_, err = exercises.Close(ctx, domainagg.ExerciseInput{UserID: u.ID})
	if !errors.Is(err, learning.ErrUnknownProblem) {
		t.Fatalf("close without problem: got=%v", err)
	}
}

func TestExerciseAggregateCloseRollsBackBothRows(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	exercises := newExerciseAggregateForTest(t, tx, rollbackAfterBodyRunner{db: tx})
	log := repotest.Logger(t)
	exRepo := repos.NewUserExerciseRepo(tx, log)
	subRepo := repos.NewSubmissionRepo(tx, log)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	u := repotest.SeedUser(t, ctx, tx, "halfway")
	ex := repotest.SeedExercise(t, ctx, tx, u.ID, leap.TrackID, leap.Slug, learning.StatePending)
	s := repotest.SeedSubmission(t, ctx, tx, ex, learning.StatePending, time.Now().UTC())

	if _, err := exercises.Close(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: leap}); err == nil {
		t.Fatalf("expected injected rollback error")
	}
	gotEx, err := exRepo.GetByID(dbc, ex.ID)
	if err != nil {
		t.Fatalf("GetByID exercise: %v", err)
	}
	gotSub, err := subRepo.GetByID(dbc, s.ID)
	if err != nil {
		t.Fatalf("GetByID submission: %v", err)
	}
	if gotEx.State != learning.StatePending || gotSub.State != learning.StatePending || gotSub.DoneAt != nil {
		t.Fatalf("rollback left partial close: ex=%s sub=%s", gotEx.State, gotSub.State)
	}
}

func TestExerciseAggregateUnlockRequiresLineage(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	iterations, _ := newIterationAggregateForTest(t, tx, nil)
	exercises := newExerciseAggregateForTest(t, tx, nil)
	log := repotest.Logger(t)
	exRepo := repos.NewUserExerciseRepo(tx, log)
	homework := repos.NewHomeworkRepo(tx, log)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	u := repotest.SeedUser(t, ctx, tx, "locksmith")
	bob := learning.Problem{TrackID: "go", Slug: "bob"}

	_, err := exercises.Unlock(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: bob})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unlock without submissions: want not_found, got=%v", err)
	}
	report, err := homework.ExerciseStates(dbc, u.ID)
	if err != nil {
		t.Fatalf("ExerciseStates: %v", err)
	}
	if len(report) != 0 {
		t.Fatalf("unlock must not create progress rows, got=%+v", report)
	}

	accept(t, ctx, iterations, u.ID, "v1", time.Now().UTC())
	res, err := exercises.Unlock(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: leap})
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !res.Exercise.IsNitpicker || res.Exercise.IterationCount != 1 || res.Exercise.State != learning.StatePending {
		t.Fatalf("unlock result: %+v", res.Exercise)
	}
	ok, err := exRepo.IsUnlocked(dbc, u.ID, leap)
	if err != nil {
		t.Fatalf("IsUnlocked: %v", err)
	}
	if !ok {
		t.Fatalf("exercise should be unlocked")
	}
	if _, err := exercises.Unlock(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: leap}); err != nil {
		t.Fatalf("second Unlock: %v", err)
	}
}

func TestExerciseAggregateLeavesSupersededLatestAlone(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	exercises := newExerciseAggregateForTest(t, tx, nil)
	subRepo := repos.NewSubmissionRepo(tx, repotest.Logger(t))

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	u := repotest.SeedUser(t, ctx, tx, "unsubmitter")
	// What an unsubmit of v2 leaves behind: a pending lineage whose only row is superseded.
	ex := repotest.SeedExercise(t, ctx, tx, u.ID, leap.TrackID, leap.Slug, learning.StatePending)
	v1 := repotest.SeedSubmission(t, ctx, tx, ex, learning.StateSuperseded, time.Now().UTC().Add(-time.Hour))

	reopened, err := exercises.Reopen(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: leap})
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if reopened.Exercise.State != learning.StatePending || !reopened.Latest.IsSuperseded() {
		t.Fatalf("reopen result: ex=%s latest=%s", reopened.Exercise.State, reopened.Latest.State)
	}
	got, err := subRepo.GetByID(dbc, v1.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != learning.StateSuperseded {
		t.Fatalf("reopen resurrected v1: %s", got.State)
	}

	closed, err := exercises.Close(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: leap})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Exercise.State != learning.StateDone {
		t.Fatalf("close result: %s", closed.Exercise.State)
	}
	got, err = subRepo.GetByID(dbc, v1.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != learning.StateSuperseded || got.DoneAt != nil {
		t.Fatalf("close touched superseded v1: state=%s done_at=%v", got.State, got.DoneAt)
	}
}

func TestExerciseAggregateCloseGuardsLatestState(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	exercises := newExerciseAggregateForTest(t, tx, nil)
	exRepo := repos.NewUserExerciseRepo(tx, repotest.Logger(t))

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	u := repotest.SeedUser(t, ctx, tx, "drifted")
	ex := repotest.SeedExercise(t, ctx, tx, u.ID, leap.TrackID, leap.Slug, learning.StatePending)
	repotest.SeedSubmission(t, ctx, tx, ex, learning.StateDone, time.Now().UTC())

	_, err := exercises.Close(ctx, domainagg.ExerciseInput{UserID: u.ID, Problem: leap})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict when latest is not active, got=%v", err)
	}
	got, err := exRepo.GetByID(dbc, ex.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != learning.StatePending {
		t.Fatalf("failed close must roll back the lineage, state=%s", got.State)
	}
}
