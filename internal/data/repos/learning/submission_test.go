package learning

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/iterations-backend/internal/data/repos/testutil"
	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
)

func TestSubmissionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewSubmissionRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "alice")
	ex := testutil.SeedExercise(t, ctx, tx, u.ID, "ruby", "leap", types.StatePending)

	now := time.Now().UTC()
	v1 := testutil.SeedSubmission(t, ctx, tx, ex, types.StateSuperseded, now.Add(-2*time.Hour))
	v2 := testutil.SeedSubmission(t, ctx, tx, ex, types.StatePending, now.Add(-time.Hour))

	got, err := repo.GetByID(dbc, v1.ID)
	if err != nil || got == nil || got.Version != 1 {
		t.Fatalf("GetByID: err=%v got=%+v", err, got)
	}
	got, err = repo.GetByKey(dbc, v2.Key)
	if err != nil || got == nil || got.ID != v2.ID {
		t.Fatalf("GetByKey: err=%v got=%+v", err, got)
	}
	got, err = repo.LockByID(dbc, v2.ID)
	if err != nil || got == nil || got.ID != v2.ID {
		t.Fatalf("LockByID: err=%v got=%+v", err, got)
	}

	list, err := repo.ListByExercise(dbc, ex.ID)
	if err != nil || len(list) != 2 || list[0].Version != 1 || list[1].Version != 2 {
		t.Fatalf("ListByExercise: err=%v list=%+v", err, list)
	}
	n, err := repo.CountByExercise(dbc, ex.ID)
	if err != nil || n != 2 {
		t.Fatalf("CountByExercise: err=%v n=%d", err, n)
	}
	prior, err := repo.GetByVersion(dbc, ex.ID, 1)
	if err != nil || prior == nil || prior.ID != v1.ID {
		t.Fatalf("GetByVersion: err=%v got=%+v", err, prior)
	}
	none, err := repo.GetByVersion(dbc, ex.ID, 0)
	if err != nil || none != nil {
		t.Fatalf("GetByVersion(0): err=%v got=%+v", err, none)
	}
	latest, err := repo.LatestForExercise(dbc, ex.ID)
	if err != nil || latest == nil || latest.ID != v2.ID {
		t.Fatalf("LatestForExercise: err=%v got=%+v", err, latest)
	}
	active, err := repo.ActiveForExercise(dbc, ex.ID)
	if err != nil || len(active) != 1 || active[0].ID != v2.ID {
		t.Fatalf("ActiveForExercise: err=%v got=%+v", err, active)
	}

	awaiting, err := repo.LatestAwaitingReviewForUser(dbc, u.ID)
	if err != nil || awaiting == nil || awaiting.ID != v2.ID {
		t.Fatalf("LatestAwaitingReviewForUser: err=%v got=%+v", err, awaiting)
	}

	affected, err := repo.SupersedeActive(dbc, ex.ID)
	if err != nil || affected != 1 {
		t.Fatalf("SupersedeActive: err=%v affected=%d", err, affected)
	}
	got, _ = repo.GetByID(dbc, v2.ID)
	if got.State != types.StateSuperseded || got.DoneAt != nil {
		t.Fatalf("SupersedeActive: expected superseded without done_at, got %+v", got)
	}
	awaiting, err = repo.LatestAwaitingReviewForUser(dbc, u.ID)
	if err != nil || awaiting != nil {
		t.Fatalf("LatestAwaitingReviewForUser(after supersede): err=%v got=%+v", err, awaiting)
	}

	if err := repo.UpdateFields(dbc, v2.ID, map[string]interface{}{"state": types.StateDone, "done_at": now}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	done, err := repo.CountDoneForUser(dbc, u.ID)
	if err != nil || done != 1 {
		t.Fatalf("CountDoneForUser: err=%v n=%d", err, done)
	}
	onProblem, err := repo.CountForUserProblem(dbc, u.ID, types.Problem{TrackID: "ruby", Slug: "leap"}, []string{types.StateDone})
	if err != nil || onProblem != 1 {
		t.Fatalf("CountForUserProblem: err=%v n=%d", err, onProblem)
	}
	history, err := repo.ListForUserProblem(dbc, u.ID, types.Problem{TrackID: "ruby", Slug: "leap"})
	if err != nil || len(history) != 2 || history[0].ID != v2.ID {
		t.Fatalf("ListForUserProblem: err=%v got=%+v", err, history)
	}
}

func TestSubmissionRepoLatestPerExercise(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewSubmissionRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "bob")
	other := testutil.SeedUser(t, ctx, tx, "carol")
	now := time.Now().UTC()

	leap := testutil.SeedExercise(t, ctx, tx, u.ID, "ruby", "leap", types.StatePending)
	bob := testutil.SeedExercise(t, ctx, tx, u.ID, "go", "bob", types.StateDone)
	theirs := testutil.SeedExercise(t, ctx, tx, other.ID, "go", "bob", types.StatePending)

	testutil.SeedSubmission(t, ctx, tx, leap, types.StateSuperseded, now.Add(-3*time.Hour))
	leap2 := testutil.SeedSubmission(t, ctx, tx, leap, types.StatePending, now.Add(-2*time.Hour))
	bob1 := testutil.SeedSubmission(t, ctx, tx, bob, types.StateDone, now.Add(-time.Hour))
	testutil.SeedSubmission(t, ctx, tx, theirs, types.StatePending, now)

	latest, err := repo.LatestPerExerciseForUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("LatestPerExerciseForUser: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("LatestPerExerciseForUser: expected 2, got %d", len(latest))
	}
	if latest[0].ID != bob1.ID || latest[1].ID != leap2.ID {
		t.Fatalf("LatestPerExerciseForUser: expected go/bob then ruby/leap v2, got %+v", latest)
	}
}

func TestSubmissionRepoDeleteCascade(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	repo := NewSubmissionRepo(db, log)
	likes := NewLikeRepo(db, log)
	mutes := NewMuteRepo(db, log)
	viewers := NewViewerRepo(db, log)
	comments := NewCommentRepo(db, log)

	u := testutil.SeedUser(t, ctx, tx, "dave")
	reviewer := testutil.SeedUser(t, ctx, tx, "erin")
	ex := testutil.SeedExercise(t, ctx, tx, u.ID, "ruby", "bob", types.StatePending)
	sub := testutil.SeedSubmission(t, ctx, tx, ex, types.StatePending, time.Now().UTC())

	testutil.SeedComment(t, ctx, tx, sub.ID, reviewer.ID, "nit", time.Now().UTC())
	if _, err := likes.Add(dbc, sub.ID, reviewer.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := mutes.Add(dbc, sub.ID, reviewer.ID); err != nil {
		t.Fatalf("mute: %v", err)
	}
	if _, err := viewers.Record(dbc, sub.ID, reviewer.ID); err != nil {
		t.Fatalf("view: %v", err)
	}

	deleted, err := repo.DeleteCascade(dbc, sub.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteCascade: err=%v deleted=%v", err, deleted)
	}
	if got, _ := repo.GetByID(dbc, sub.ID); got != nil {
		t.Fatalf("DeleteCascade: submission still present")
	}
	if n, _ := comments.CountBySubmission(dbc, sub.ID); n != 0 {
		t.Fatalf("DeleteCascade: expected comments removed, got %d", n)
	}
	if n, _ := likes.Count(dbc, sub.ID); n != 0 {
		t.Fatalf("DeleteCascade: expected likes removed, got %d", n)
	}
	if muted, _ := mutes.IsMutedBy(dbc, sub.ID, reviewer.ID); muted {
		t.Fatalf("DeleteCascade: expected mutes removed")
	}
	if n, _ := viewers.Count(dbc, sub.ID); n != 0 {
		t.Fatalf("DeleteCascade: expected viewers removed, got %d", n)
	}

	deleted, err = repo.DeleteCascade(dbc, sub.ID)
	if err != nil || deleted {
		t.Fatalf("DeleteCascade(again): err=%v deleted=%v", err, deleted)
	}
}
