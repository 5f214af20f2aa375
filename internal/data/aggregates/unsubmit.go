package aggregates

import (
	"context"

	"github.com/google/uuid"
	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
)

// Unsubmit deletes the learner's most recent iteration awaiting review.
// Preconditions are checked in a fixed order after the lineage is locked:
// nothing to unsubmit, has nits, already done, too old. The superseded
// predecessor stays superseded.
func (a *iterationAggregate) Unsubmit(ctx context.Context, in domainagg.UnsubmitInput) (domainagg.UnsubmitResult, error) {
	const op = "Learning.Iteration.Unsubmit"
	var out domainagg.UnsubmitResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if a.deps.Exercises == nil || a.deps.Submissions == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "iteration aggregate repos not configured", nil)
	}
	maxAge := in.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultUnsubmitMaxAge
	}
	now := in.Now.UTC()
	if in.Now.IsZero() {
		now = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		candidate, err := a.deps.Submissions.LatestAwaitingReviewForUser(dbc, in.UserID)
		if err != nil {
			return err
		}
		if candidate == nil {
			return domainagg.Reject(domainagg.CodeNotFound, op, learning.ErrNothingToUnsubmit)
		}

		ex, err := a.deps.Exercises.LockByID(dbc, candidate.UserExerciseID)
		if err != nil {
			return err
		}
		sub, err := a.deps.Submissions.GetByID(dbc, candidate.ID)
		if err != nil {
			return err
		}
		if ex == nil || sub == nil {
			return domainagg.Reject(domainagg.CodeNotFound, op, learning.ErrNothingToUnsubmit)
		}

		if sub.NitCount > 0 {
			return domainagg.Reject(domainagg.CodePreconditionFailed, op, learning.ErrHasNits)
		}
		if sub.IsDone() {
			return domainagg.Reject(domainagg.CodePreconditionFailed, op, learning.ErrAlreadyDone)
		}
		if !sub.IsActive() {
			return ConflictError("iteration was superseded while unsubmitting")
		}
		if sub.OlderThan(maxAge, now) {
			return domainagg.Reject(domainagg.CodePreconditionFailed, op, learning.ErrTooOld)
		}

		deleted, err := a.deps.Submissions.DeleteCascade(dbc, sub.ID)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(deleted, "iteration already removed"); err != nil {
			return err
		}

		remaining, err := a.deps.Submissions.CountByExercise(dbc, ex.ID)
		if err != nil {
			return err
		}
		if err := a.deps.Exercises.UpdateFields(dbc, ex.ID, map[string]interface{}{
			"iteration_count": int(remaining),
			"updated_at":      now,
		}); err != nil {
			return err
		}
		ex.IterationCount = int(remaining)
		ex.UpdatedAt = now

		out.Deleted = sub
		out.Exercise = ex
		return nil
	})
	if err != nil {
		return domainagg.UnsubmitResult{}, err
	}
	return out, nil
}
