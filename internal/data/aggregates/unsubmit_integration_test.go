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
)

func TestUnsubmitRubyLeapScenario(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg, r := newIterationAggregateForTest(t, tx, nil)

	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, tx, "alice")
	now := time.Now().UTC()

	v1 := accept(t, ctx, agg, u.ID, "class Year; end", now.Add(-10*time.Minute))
	if v1.Submission.Version != 1 || v1.Submission.State != learning.StatePending {
		t.Fatalf("v1: %+v", v1.Submission)
	}
	v2 := accept(t, ctx, agg, u.ID, "class Year; def leap?; end; end", now.Add(-5*time.Minute))
	if v2.Submission.Version != 2 || v2.Superseded == nil || v2.Superseded.ID != v1.Submission.ID {
		t.Fatalf("v2: %+v superseded=%+v", v2.Submission, v2.Superseded)
	}

	res, err := agg.Unsubmit(ctx, domainagg.UnsubmitInput{UserID: u.ID, Now: now})
	if err != nil {
		t.Fatalf("Unsubmit: %v", err)
	}
	if res.Deleted == nil || res.Deleted.ID != v2.Submission.ID {
		t.Fatalf("deleted: want v2 got=%+v", res.Deleted)
	}
	if res.Exercise.IterationCount != 1 {
		t.Fatalf("iteration_count: want=1 got=%d", res.Exercise.IterationCount)
	}

	dbc := dbctx.Context{Ctx: ctx}
	gone, err := r.submissions.GetByID(dbc, v2.Submission.ID)
	if err != nil {
		t.Fatalf("GetByID v2: %v", err)
	}
	if gone != nil {
		t.Fatalf("v2 should be deleted")
	}
	prior, err := r.submissions.GetByID(dbc, v1.Submission.ID)
	if err != nil {
		t.Fatalf("GetByID v1: %v", err)
	}
	if prior == nil || prior.State != learning.StateSuperseded {
		t.Fatalf("v1 must stay superseded, got=%+v", prior)
	}
	lineage, err := r.exercises.GetByID(dbc, v1.Exercise.ID)
	if err != nil {
		t.Fatalf("GetByID lineage: %v", err)
	}
	if lineage.State != learning.StatePending || lineage.IterationCount != 1 {
		t.Fatalf("lineage after unsubmit: state=%s count=%d", lineage.State, lineage.IterationCount)
	}

	// v1 is superseded, so nothing is awaiting review any more.
	_, err = agg.Unsubmit(ctx, domainagg.UnsubmitInput{UserID: u.ID, Now: now})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) || !errors.Is(err, learning.ErrNothingToUnsubmit) {
		t.Fatalf("second unsubmit: got=%v", err)
	}
}

func TestUnsubmitChecksRunInOrder(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg, r := newIterationAggregateForTest(t, tx, nil)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	now := time.Now().UTC()

	t.Run("nothing to unsubmit", func(t *testing.T) {
		u := repotest.SeedUser(t, ctx, tx, "nobody")
		_, err := agg.Unsubmit(ctx, domainagg.UnsubmitInput{UserID: u.ID, Now: now})
		if !errors.Is(err, learning.ErrNothingToUnsubmit) {
			t.Fatalf("got=%v", err)
		}
	})

	t.Run("has nits wins over too old", func(t *testing.T) {
		u := repotest.SeedUser(t, ctx, tx, "nitted")
		ex := repotest.SeedExercise(t, ctx, tx, u.ID, "ruby", "bob", learning.StatePending)
		s := repotest.SeedSubmission(t, ctx, tx, ex, learning.StatePending, now.Add(-2*time.Hour))
		if err := r.submissions.UpdateFields(dbc, s.ID, map[string]interface{}{"nit_count": 1}); err != nil {
			t.Fatalf("seed nit_count: %v", err)
		}
		_, err := agg.Unsubmit(ctx, domainagg.UnsubmitInput{UserID: u.ID, Now: now})
		if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) || !errors.Is(err, learning.ErrHasNits) {
			t.Fatalf("got=%v", err)
		}
	})

	t.Run("too old", func(t *testing.T) {
		u := repotest.SeedUser(t, ctx, tx, "slow")
		ex := repotest.SeedExercise(t, ctx, tx, u.ID, "ruby", "bob", learning.StatePending)
		repotest.SeedSubmission(t, ctx, tx, ex, learning.StateNeedsInput, now.Add(-31*time.Minute))
		_, err := agg.Unsubmit(ctx, domainagg.UnsubmitInput{UserID: u.ID, Now: now})
		if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) || !errors.Is(err, learning.ErrTooOld) {
			t.Fatalf("got=%v", err)
		}
	})

	t.Run("max age is configurable", func(t *testing.T) {
		u := repotest.SeedUser(t, ctx, tx, "patient")
		ex := repotest.SeedExercise(t, ctx, tx, u.ID, "ruby", "bob", learning.StatePending)
		s := repotest.SeedSubmission(t, ctx, tx, ex, learning.StatePending, now.Add(-45*time.Minute))
		res, err := agg.Unsubmit(ctx, domainagg.UnsubmitInput{UserID: u.ID, Now: now, MaxAge: time.Hour})
		if err != nil {
			t.Fatalf("Unsubmit: %v", err)
		}
		if res.Deleted.ID != s.ID || res.Exercise.IterationCount != 0 {
			t.Fatalf("result: deleted=%v count=%d", res.Deleted.ID, res.Exercise.IterationCount)
		}
	})
}

func TestUnsubmitCascadesEngagement(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	agg, r := newIterationAggregateForTest(t, tx, nil)
	log := repotest.Logger(t)
	likes := repos.NewLikeRepo(tx, log)
	mutes := repos.NewMuteRepo(tx, log)
	viewers := repos.NewViewerRepo(tx, log)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	owner := repotest.SeedUser(t, ctx, tx, "owner")
	other := repotest.SeedUser(t, ctx, tx, "other")
	res := accept(t, ctx, agg, owner.ID, "puts :hi", time.Now().UTC())
	subID := res.Submission.ID

	if _, err := likes.Add(dbc, subID, other.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := mutes.Add(dbc, subID, other.ID); err != nil {
		t.Fatalf("mute: %v", err)
	}
	if _, err := viewers.Record(dbc, subID, other.ID); err != nil {
		t.Fatalf("view: %v", err)
	}
	// The owner's own comment does not count as a nit.
	repotest.SeedComment(t, ctx, tx, subID, owner.ID, "note to self", time.Now().UTC())

	if _, err := agg.Unsubmit(ctx, domainagg.UnsubmitInput{UserID: owner.ID}); err != nil {
		t.Fatalf("Unsubmit: %v", err)
	}
	if n, err := likes.Count(dbc, subID); err != nil || n != 0 {
		t.Fatalf("likes after cascade: n=%d err=%v", n, err)
	}
	if muted, err := mutes.IsMutedBy(dbc, subID, other.ID); err != nil || muted {
		t.Fatalf("mute after cascade: muted=%v err=%v", muted, err)
	}
	if n, err := viewers.Count(dbc, subID); err != nil || n != 0 {
		t.Fatalf("viewers after cascade: n=%d err=%v", n, err)
	}
	if n, err := repos.NewCommentRepo(tx, log).CountBySubmission(dbc, subID); err != nil || n != 0 {
		t.Fatalf("comments after cascade: n=%d err=%v", n, err)
	}
	if sub, _ := r.submissions.GetByID(dbc, subID); sub != nil {
		t.Fatalf("submission should be gone")
	}
}
