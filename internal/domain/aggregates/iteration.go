package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
)

var IterationAggregateContract = Contract{
	Name:             "Learning.IterationAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns lineage versioning, supersession and unsubmit under the lineage row lock.",
}

// IterationAggregate owns the lineage of a (learner, track, slug).
//
// Rejections carry the learning sentinels as cause:
// AcceptAttempt -> ErrUnknownProblem, ErrDuplicateIteration (CodeValidation);
// Unsubmit -> ErrNothingToUnsubmit (CodeNotFound), ErrHasNits, ErrAlreadyDone,
// ErrTooOld (CodePreconditionFailed). A version collision is reported as
// CodeInvariantViolation wrapping ErrVersionCollision.
type IterationAggregate interface {
	Aggregate

	AcceptAttempt(ctx context.Context, in AcceptAttemptInput) (AcceptAttemptResult, error)
	Unsubmit(ctx context.Context, in UnsubmitInput) (UnsubmitResult, error)
}

type AcceptAttemptInput struct {
	UserID   uuid.UUID
	Problem  learning.Problem
	Filename string
	Code     string
	// Duplicate is computed upstream against the latest accepted code.
	Duplicate bool
	At        time.Time
}

type AcceptAttemptResult struct {
	Submission *learning.Submission
	Exercise   *learning.UserExercise
	// Superseded is the previously active iteration, if there was one.
	Superseded *learning.Submission
}

type UnsubmitInput struct {
	UserID uuid.UUID
	Now    time.Time
	MaxAge time.Duration
}

type UnsubmitResult struct {
	Deleted  *learning.Submission
	Exercise *learning.UserExercise
}
