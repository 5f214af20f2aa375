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

// DefaultUnsubmitMaxAge applies when the caller passes no limit.
const DefaultUnsubmitMaxAge = 30 * time.Minute

type IterationAggregateDeps struct {
	Base BaseDeps

	Exercises   repos.UserExerciseRepo
	Submissions repos.SubmissionRepo
}

type iterationAggregate struct {
	deps     IterationAggregateDeps
	versions VersionResolver
}

func NewIterationAggregate(deps IterationAggregateDeps) domainagg.IterationAggregate {
	deps.Base = deps.Base.withDefaults()
	return &iterationAggregate{deps: deps, versions: NewVersionResolver(deps.Submissions)}
}

func (a *iterationAggregate) Contract() domainagg.Contract {
	return domainagg.IterationAggregateContract
}

func (a *iterationAggregate) AcceptAttempt(ctx context.Context, in domainagg.AcceptAttemptInput) (domainagg.AcceptAttemptResult, error) {
	const op = "Learning.Iteration.AcceptAttempt"
	var out domainagg.AcceptAttemptResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if !in.Problem.Valid() {
		return out, domainagg.Reject(domainagg.CodeValidation, op, learning.ErrUnknownProblem)
	}
	if in.Duplicate {
		return out, domainagg.Reject(domainagg.CodeValidation, op, learning.ErrDuplicateIteration)
	}
	if a.deps.Exercises == nil || a.deps.Submissions == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "iteration aggregate repos not configured", nil)
	}

	at := in.At.UTC()
	if in.At.IsZero() {
		at = a.deps.Base.Now()
	}
	filename := in.Filename
	if filename == "" {
		filename = in.Problem.Slug
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Exercises.GetOrCreate(dbc, in.UserID, in.Problem)
		if err != nil {
			return err
		}
		if row == nil {
			return domainagg.NewError(domainagg.CodeInternal, op, "lineage could not be created", nil)
		}
		ex, err := a.deps.Exercises.LockByID(dbc, row.ID)
		if err != nil {
			return err
		}
		if ex == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "lineage vanished under lock", nil)
		}

		version, err := a.versions.NextVersion(dbc, ex)
		if err != nil {
			return err
		}

		active, err := a.deps.Submissions.ActiveForExercise(dbc, ex.ID)
		if err != nil {
			return err
		}
		if len(active) > 1 {
			a.deps.Base.Log.Warn("lineage had several active iterations",
				"lineage", ex.Key,
				"active", len(active),
			)
		}
		if len(active) > 0 {
			superseded, err := a.deps.Submissions.SupersedeActive(dbc, ex.ID)
			if err != nil {
				return err
			}
			if err := RequireCASSuccess(superseded == int64(len(active)), "active iterations changed under lineage lock"); err != nil {
				return err
			}
			prev := active[len(active)-1]
			prev.State = learning.StateSuperseded
			prev.DoneAt = nil
			out.Superseded = prev
		}

		sub := &types.Submission{
			UserID:         in.UserID,
			UserExerciseID: ex.ID,
			TrackID:        in.Problem.TrackID,
			Slug:           in.Problem.Slug,
			State:          learning.StatePending,
			Version:        version,
			NitCount:       0,
			IsLiked:        false,
			Filename:       filename,
			Solution:       map[string]interface{}{filename: in.Code},
			CreatedAt:      at,
			UpdatedAt:      at,
		}
		if err := a.deps.Submissions.Create(dbc, sub); err != nil {
			return err
		}

		if err := a.deps.Exercises.UpdateFields(dbc, ex.ID, map[string]interface{}{
			"state":           learning.StatePending,
			"iteration_count": version,
			"updated_at":      at,
		}); err != nil {
			return err
		}
		ex.State = learning.StatePending
		ex.IterationCount = version
		ex.UpdatedAt = at

		out.Submission = sub
		out.Exercise = ex
		return nil
	})
	if err != nil {
		return domainagg.AcceptAttemptResult{}, err
	}
	return out, nil
}
