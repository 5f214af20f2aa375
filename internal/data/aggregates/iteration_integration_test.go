package aggregates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/data/repos"
	repotest "github.com/yungbote/iterations-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

var leap = learning.Problem{TrackID: "ruby", Slug: "leap"}

type lineageRepos struct {
	exercises   repos.UserExerciseRepo
	submissions repos.SubmissionRepo
}

func newIterationAggregateForTest(t *testing.T, db *gorm.DB, runner TxRunner) (domainagg.IterationAggregate, lineageRepos) {
	t.Helper()
	log := repotest.Logger(t)
	r := lineageRepos{
		exercises:   repos.NewUserExerciseRepo(db, log),
		submissions: repos.NewSubmissionRepo(db, log),
	}
	if runner == nil {
		runner = NewGormTxRunner(db)
	}
	agg := NewIterationAggregate(IterationAggregateDeps{
		Base: BaseDeps{
			DB:       db,
			Log:      log,
			Runner:   runner,
			CASGuard: NewCASGuard(db),
		},
		Exercises:   r.exercises,
		Submissions: r.submissions,
	})
	return agg, r
}

func accept(t *testing.T, ctx context.Context, agg domainagg.IterationAggregate, userID uuid.UUID, code string, at time.Time) domainagg.AcceptAttemptResult {
	t.Helper()
	res, err := agg.AcceptAttempt(ctx, domainagg.AcceptAttemptInput{
		UserID:   userID,
		Problem:  leap,
		Filename: "leap.rb",
		Code:     code,
		At:       at,
	})
	if err != nil {
		t.Fatalf("AcceptAttempt(%q): %v", code, err)
	}
	return res
}

func TestIterationAggregateAcceptAttemptAssignsDenseVersions(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg, r := newIterationAggregateForTest(t, tx, nil)

	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, tx, "alice")
	base := time.Now().UTC().Add(-time.Hour)

	var last domainagg.AcceptAttemptResult
	for i := 1; i <= 4; i++ {
		last = accept(t, ctx, agg, u.ID, fmt.Sprintf("code %d", i), base.Add(time.Duration(i)*time.Minute))
		if last.Submission.Version != i {
			t.Fatalf("attempt %d: version=%d", i, last.Submission.Version)
		}
		if i > 1 && (last.Superseded == nil || last.Superseded.Version != i-1) {
			t.Fatalf("attempt %d: superseded=%+v", i, last.Superseded)
		}
	}
	if last.Exercise.IterationCount != 4 || last.Exercise.State != learning.StatePending {
		t.Fatalf("lineage after 4 attempts: %+v", last.Exercise)
	}
	if got := last.Submission.Code(); got != "code 4" {
		t.Fatalf("solution: got=%q", got)
	}

	dbc := dbctx.Context{Ctx: ctx}
	subs, err := r.submissions.ListByExercise(dbc, last.Exercise.ID)
	if err != nil {
		t.Fatalf("ListByExercise: %v", err)
	}
	if len(subs) != 4 {
		t.Fatalf("submissions: want=4 got=%d", len(subs))
	}
	for i, s := range subs {
		if s.Version != i+1 {
			t.Fatalf("gap at %d: version=%d", i, s.Version)
		}
		want := learning.StateSuperseded
		if i == 3 {
			want = learning.StatePending
		}
		if s.State != want {
			t.Fatalf("v%d state: want=%s got=%s", s.Version, want, s.State)
		}
	}
	active, err := r.submissions.ActiveForExercise(dbc, last.Exercise.ID)
	if err != nil {
		t.Fatalf("ActiveForExercise: %v", err)
	}
	if len(active) != 1 || active[0].ID != last.Submission.ID {
		t.Fatalf("want exactly the newest iteration active, got=%d", len(active))
	}
}

func TestIterationAggregateSupersedeClearsDoneAt(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg, r := newIterationAggregateForTest(t, tx, nil)

	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, tx, "bob")
	ex := repotest.SeedExercise(t, ctx, tx, u.ID, leap.TrackID, leap.Slug, learning.StateHibernating)
	doneAt := time.Now().UTC().Add(-48 * time.Hour)
	prior := repotest.SeedSubmission(t, ctx, tx, ex, learning.StateHibernating, doneAt.Add(-time.Hour))
	dbc := dbctx.Context{Ctx: ctx}
	if err := r.submissions.UpdateFields(dbc, prior.ID, map[string]interface{}{"done_at": doneAt}); err != nil {
		t.Fatalf("seed done_at: %v", err)
	}

	res := accept(t, ctx, agg, u.ID, "second", time.Now().UTC())
	if res.Submission.Version != 2 {
		t.Fatalf("version: want=2 got=%d", res.Submission.Version)
	}
	got, err := r.submissions.GetByID(dbc, prior.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != learning.StateSuperseded {
		t.Fatalf("prior state: want=superseded got=%s", got.State)
	}
	if got.DoneAt != nil {
		t.Fatalf("prior done_at should be cleared, got=%v", got.DoneAt)
	}
}

func TestIterationAggregateRejectsWithoutStateChange(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg, r := newIterationAggregateForTest(t, tx, nil)

	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, tx, "carol")
	first := accept(t, ctx, agg, u.ID, "puts 1", time.Now().UTC())

	_, err := agg.AcceptAttempt(ctx, domainagg.AcceptAttemptInput{
		UserID: u.ID, Problem: leap, Filename: "leap.rb", Code: "puts 1", Duplicate: true,
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) || !errors.Is(err, learning.ErrDuplicateIteration) {
		t.Fatalf("duplicate: got=%v", err)
	}
	_, err = agg.AcceptAttempt(ctx, domainagg.AcceptAttemptInput{
		UserID: u.ID, Problem: learning.Problem{TrackID: "ruby"}, Code: "x",
	})
	if !errors.Is(err, learning.ErrUnknownProblem) {
		t.Fatalf("unknown problem: got=%v", err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	n, err := r.submissions.CountByExercise(dbc, first.Exercise.ID)
	if err != nil {
		t.Fatalf("CountByExercise: %v", err)
	}
	if n != 1 {
		t.Fatalf("rejections must not create iterations, count=%d", n)
	}
	still, err := r.submissions.GetByID(dbc, first.Submission.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if still.State != learning.StatePending || still.UpdatedAt.After(first.Submission.UpdatedAt.Add(time.Second)) {
		t.Fatalf("first iteration changed: %+v", still)
	}
}

func TestIterationAggregateCountMismatchIsInvariantViolation(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg, r := newIterationAggregateForTest(t, tx, nil)

	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, tx, "dave")
	res := accept(t, ctx, agg, u.ID, "v1", time.Now().UTC())

	dbc := dbctx.Context{Ctx: ctx}
	if err := r.exercises.UpdateFields(dbc, res.Exercise.ID, map[string]interface{}{"iteration_count": 5}); err != nil {
		t.Fatalf("corrupt iteration_count: %v", err)
	}
	_, err := agg.AcceptAttempt(ctx, domainagg.AcceptAttemptInput{UserID: u.ID, Problem: leap, Code: "v2"})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("want invariant violation, got=%v", err)
	}
	n, err := r.submissions.CountByExercise(dbc, res.Exercise.ID)
	if err != nil {
		t.Fatalf("CountByExercise: %v", err)
	}
	if n != 1 {
		t.Fatalf("failed write must not insert, count=%d", n)
	}
}

func TestIterationAggregateVersionCollision(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	hooks := &spyHooks{}
	log := repotest.Logger(t)
	exercises := repos.NewUserExerciseRepo(tx, log)
	submissions := repos.NewSubmissionRepo(tx, log)
	agg := NewIterationAggregate(IterationAggregateDeps{
		Base:        BaseDeps{DB: tx, Log: log, Runner: NewGormTxRunner(tx), Hooks: hooks},
		Exercises:   exercises,
		Submissions: submissions,
	})

	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, tx, "erin")
	ex := repotest.SeedExercise(t, ctx, tx, u.ID, leap.TrackID, leap.Slug, learning.StatePending)
	// One row, but it sits in slot 2: the count says next=2, which is taken.
	s := repotest.SeedSubmission(t, ctx, tx, ex, learning.StatePending, time.Now().UTC())
	if err := submissions.UpdateFields(dbctx.Context{Ctx: ctx}, s.ID, map[string]interface{}{"version": 2}); err != nil {
		t.Fatalf("move version: %v", err)
	}

	_, err := agg.AcceptAttempt(ctx, domainagg.AcceptAttemptInput{UserID: u.ID, Problem: leap, Code: "next"})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) || !errors.Is(err, learning.ErrVersionCollision) {
		t.Fatalf("want version collision invariant violation, got=%v", err)
	}
	if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(domainagg.CodeInvariantViolation) {
		t.Fatalf("hooks: %+v", hooks.Operations)
	}
	if len(hooks.Retries) != 0 {
		t.Fatalf("collision must not be retried: %v", hooks.Retries)
	}
}

func TestIterationAggregateRollbackOnInjectedFailure(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg, r := newIterationAggregateForTest(t, tx, rollbackAfterBodyRunner{db: tx})

	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, tx, "frank")
	ex := repotest.SeedExercise(t, ctx, tx, u.ID, leap.TrackID, leap.Slug, learning.StatePending)
	prior := repotest.SeedSubmission(t, ctx, tx, ex, learning.StatePending, time.Now().UTC())

	_, err := agg.AcceptAttempt(ctx, domainagg.AcceptAttemptInput{UserID: u.ID, Problem: leap, Code: "rolled back"})
	if err == nil {
		t.Fatalf("expected injected rollback error")
	}

	dbc := dbctx.Context{Ctx: ctx}
	got, err := r.submissions.GetByID(dbc, prior.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != learning.StatePending {
		t.Fatalf("prior should stay pending after rollback, got=%s", got.State)
	}
	lineage, err := r.exercises.GetByID(dbc, ex.ID)
	if err != nil {
		t.Fatalf("GetByID lineage: %v", err)
	}
	if lineage.IterationCount != 1 {
		t.Fatalf("iteration_count after rollback: want=1 got=%d", lineage.IterationCount)
	}
}

func TestIterationAggregateConcurrentAcceptsStayDense(t *testing.T) {
	db := repotest.DB(t)
	agg, r := newIterationAggregateForTest(t, db, nil)

	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, db, "grace")

	const workers = 6
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := agg.AcceptAttempt(ctx, domainagg.AcceptAttemptInput{
				UserID: u.ID, Problem: leap, Code: fmt.Sprintf("worker %d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent AcceptAttempt: %v", err)
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	ex, err := r.exercises.GetByProblem(dbc, u.ID, leap)
	if err != nil || ex == nil {
		t.Fatalf("GetByProblem: ex=%v err=%v", ex, err)
	}
	subs, err := r.submissions.ListByExercise(dbc, ex.ID)
	if err != nil {
		t.Fatalf("ListByExercise: %v", err)
	}
	if len(subs) != workers || ex.IterationCount != workers {
		t.Fatalf("want %d iterations, got rows=%d count=%d", workers, len(subs), ex.IterationCount)
	}
	active := 0
	for i, s := range subs {
		if s.Version != i+1 {
			t.Fatalf("gap at %d: version=%d", i, s.Version)
		}
		if s.IsActive() {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("active iterations: want=1 got=%d", active)
	}
}

// rollbackAfterBodyRunner runs the body in a transaction and then forces a
// rollback, as a failed commit would.
type rollbackAfterBodyRunner struct {
	db *gorm.DB
}

var errForcedRollback = errors.New("forced rollback")

func (r rollbackAfterBodyRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
			return err
		}
		return errForcedRollback
	})
}
