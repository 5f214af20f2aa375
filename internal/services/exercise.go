package services

import (
	"context"

	"github.com/google/uuid"
	types "github.com/yungbote/iterations-backend/internal/domain"
	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/observability"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type ExerciseService interface {
	Close(ctx context.Context, userID uuid.UUID, problem types.Problem) (*domainagg.ExerciseResult, error)
	Reopen(ctx context.Context, userID uuid.UUID, problem types.Problem) (*domainagg.ExerciseResult, error)
	Unlock(ctx context.Context, userID uuid.UUID, problem types.Problem) (*domainagg.ExerciseResult, error)
}

type exerciseService struct {
	log *logger.Logger
	agg domainagg.ExerciseAggregate
}

func NewExerciseService(log *logger.Logger, agg domainagg.ExerciseAggregate) ExerciseService {
	return &exerciseService{log: log.With("service", "ExerciseService"), agg: agg}
}

func (s *exerciseService) Close(ctx context.Context, userID uuid.UUID, problem types.Problem) (*domainagg.ExerciseResult, error) {
	return s.run(ctx, "completed", s.agg.Close, userID, problem)
}

func (s *exerciseService) Reopen(ctx context.Context, userID uuid.UUID, problem types.Problem) (*domainagg.ExerciseResult, error) {
	return s.run(ctx, "reopened", s.agg.Reopen, userID, problem)
}

func (s *exerciseService) Unlock(ctx context.Context, userID uuid.UUID, problem types.Problem) (*domainagg.ExerciseResult, error) {
	return s.run(ctx, "unlocked", s.agg.Unlock, userID, problem)
}

func (s *exerciseService) run(
	ctx context.Context,
	event string,
	fn func(context.Context, domainagg.ExerciseInput) (domainagg.ExerciseResult, error),
	userID uuid.UUID,
	problem types.Problem,
) (*domainagg.ExerciseResult, error) {
	res, err := fn(ctx, domainagg.ExerciseInput{UserID: userID, Problem: problem})
	if err != nil {
		return nil, err
	}
	observability.Current().IncIteration(event, problem.TrackID)
	s.log.Debug("exercise "+event, "user_id", userID, "problem", problem.String())
	return &res, nil
}
