package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
)

var ExerciseAggregateContract = Contract{
	Name:             "Learning.ExerciseAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Keeps the exercise progress record and its latest iteration in lockstep.",
}

// ExerciseAggregate owns completion, reopening and nitpicker unlocks.
type ExerciseAggregate interface {
	Aggregate

	Close(ctx context.Context, in ExerciseInput) (ExerciseResult, error)
	Reopen(ctx context.Context, in ExerciseInput) (ExerciseResult, error)
	Unlock(ctx context.Context, in ExerciseInput) (ExerciseResult, error)
}

type ExerciseInput struct {
	UserID  uuid.UUID
	Problem learning.Problem
	At      time.Time
}

type ExerciseResult struct {
	Exercise *learning.UserExercise
	Latest   *learning.Submission
}
