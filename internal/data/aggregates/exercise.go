package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/data/repos"
	types "github.com/yungbote/iterations-backend/internal/domain"
	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
)

type ExerciseAggregateDeps struct {
	Base BaseDeps

	Exercises   repos.UserExerciseRepo
	Submissions repos.SubmissionRepo
}

type exerciseAggregate struct {
	deps ExerciseAggregateDeps
}

func NewExerciseAggregate(deps ExerciseAggregateDeps) domainagg.ExerciseAggregate {
	deps.Base = deps.Base.withDefaults()
	return &exerciseAggregate{deps: deps}
}

func (a *exerciseAggregate) Contract() domainagg.Contract {
	return domainagg.ExerciseAggregateContract
}

func (a *exerciseAggregate) validate(op string, in domainagg.ExerciseInput) error {
	if in.UserID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if !in.Problem.Valid() {
		return domainagg.Reject(domainagg.CodeValidation, op, learning.ErrUnknownProblem)
	}
	if a.deps.Exercises == nil || a.deps.Submissions == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "exercise aggregate repos not configured", nil)
	}
	return nil
}

func (a *exerciseAggregate) at(in domainagg.ExerciseInput) time.Time {
	if in.At.IsZero() {
		return a.deps.Base.Now()
	}
	return in.At.UTC()
}

// Close marks the exercise and its latest iteration done together.
// Closing an already closed exercise changes nothing.
func (a *exerciseAggregate) Close(ctx context.Context, in domainagg.ExerciseInput) (domainagg.ExerciseResult, error) {
	const op = "Learning.Exercise.Close"
	var out domainagg.ExerciseResult
	if err := a.validate(op, in); err != nil {
		return out, err
	}
	at := a.at(in)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ex, latest, err := a.lockWithLatest(dbc, op, in)
		if err != nil {
			return err
		}
		out.Exercise, out.Latest = ex, latest
		if ex.IsClosed() {
			return nil
		}
		if err := RequireStateAllowed(ex.State, learning.ActiveStates...); err != nil {
			return err
		}

		if err := a.deps.Exercises.UpdateFields(dbc, ex.ID, map[string]interface{}{
			"state":      learning.StateDone,
			"updated_at": at,
		}); err != nil {
			return err
		}
		ex.State = learning.StateDone
		ex.UpdatedAt = at

		// After an unsubmit the latest row can be a superseded iteration; it stays superseded.
		if latest == nil || latest.IsSuperseded() {
			return nil
		}
		ok, err := a.deps.Base.CASGuard.UpdateByState(dbc, "submission", latest.ID, learning.ActiveStates, map[string]any{
			"state":   learning.StateDone,
			"done_at": at,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "latest iteration left the active states"); err != nil {
			return err
		}
		latest.State = learning.StateDone
		latest.DoneAt = &at
		return nil
	})
	if err != nil {
		return domainagg.ExerciseResult{}, err
	}
	return out, nil
}

// Reopen moves a closed exercise and its latest iteration back to pending.
// done_at on the iteration is kept as a record of the earlier completion.
// A superseded latest iteration is left alone.
func (a *exerciseAggregate) Reopen(ctx context.Context, in domainagg.ExerciseInput) (domainagg.ExerciseResult, error) {
	const op = "Learning.Exercise.Reopen"
	var out domainagg.ExerciseResult
	if err := a.validate(op, in); err != nil {
		return out, err
	}
	at := a.at(in)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ex, latest, err := a.lockWithLatest(dbc, op, in)
		if err != nil {
			return err
		}
		if err := RequireStateAllowed(ex.State, learning.StateDone, learning.StatePending); err != nil {
			return err
		}
		if err := a.deps.Exercises.UpdateFields(dbc, ex.ID, map[string]interface{}{
			"state":      learning.StatePending,
			"updated_at": at,
		}); err != nil {
			return err
		}
		ex.State = learning.StatePending
		ex.UpdatedAt = at

		if latest != nil && !latest.IsSuperseded() {
			if err := a.deps.Submissions.UpdateFields(dbc, latest.ID, map[string]interface{}{
				"state": learning.StatePending,
			}); err != nil {
				return err
			}
			latest.State = learning.StatePending
		}
		out.Exercise, out.Latest = ex, latest
		return nil
	})
	if err != nil {
		return domainagg.ExerciseResult{}, err
	}
	return out, nil
}

// Unlock grants nitpicking rights on an exercise the learner has submitted to.
func (a *exerciseAggregate) Unlock(ctx context.Context, in domainagg.ExerciseInput) (domainagg.ExerciseResult, error) {
	const op = "Learning.Exercise.Unlock"
	var out domainagg.ExerciseResult
	if err := a.validate(op, in); err != nil {
		return out, err
	}
	at := a.at(in)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ex, err := a.deps.Exercises.LockByProblem(dbc, in.UserID, in.Problem)
		if err != nil {
			return err
		}
		if ex == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "no submissions for "+in.Problem.String(), nil)
		}
		if !ex.IsNitpicker {
			if err := a.deps.Exercises.UpdateFields(dbc, ex.ID, map[string]interface{}{
				"is_nitpicker": true,
				"updated_at":   at,
			}); err != nil {
				return err
			}
			ex.IsNitpicker = true
			ex.UpdatedAt = at
		}
		out.Exercise = ex
		return nil
	})
	if err != nil {
		return domainagg.ExerciseResult{}, err
	}
	return out, nil
}

func (a *exerciseAggregate) lockWithLatest(dbc dbctx.Context, op string, in domainagg.ExerciseInput) (*types.UserExercise, *types.Submission, error) {
	ex, err := a.deps.Exercises.LockByProblem(dbc, in.UserID, in.Problem)
	if err != nil {
		return nil, nil, err
	}
	if ex == nil {
		return nil, nil, domainagg.NewError(domainagg.CodeNotFound, op, "no submissions for "+in.Problem.String(), nil)
	}
	latest, err := a.deps.Submissions.LatestForExercise(dbc, ex.ID)
	if err != nil {
		return nil, nil, err
	}
	return ex, latest, nil
}
