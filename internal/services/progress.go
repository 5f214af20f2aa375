package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/iterations-backend/internal/data/repos"
	learningrepo "github.com/yungbote/iterations-backend/internal/data/repos/learning"
	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

// ProgressService answers read-only questions about a learner's exercises.
type ProgressService interface {
	Report(ctx context.Context, userID uuid.UUID) (types.ProgressReport, error)
	ItemsWhere(ctx context.Context, userID uuid.UUID, pred repos.ItemsPredicate) (types.TrackItems, error)
	Completed(ctx context.Context, userID uuid.UUID) (types.TrackItems, error)
	Nitpicker(ctx context.Context, userID uuid.UUID) (types.TrackItems, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*types.Dashboard, error)
	LatestIterationsFor(ctx context.Context, userID uuid.UUID) ([]*types.Submission, error)
}

type progressService struct {
	log         *logger.Logger
	homework    repos.HomeworkRepo
	submissions repos.SubmissionRepo
}

func NewProgressService(log *logger.Logger, homework repos.HomeworkRepo, submissions repos.SubmissionRepo) ProgressService {
	return &progressService{
		log:         log.With("service", "ProgressService"),
		homework:    homework,
		submissions: submissions,
	}
}

func (s *progressService) Report(ctx context.Context, userID uuid.UUID) (types.ProgressReport, error) {
	return s.homework.ExerciseStates(dbctx.Context{Ctx: ctx}, userID)
}

func (s *progressService) ItemsWhere(ctx context.Context, userID uuid.UUID, pred repos.ItemsPredicate) (types.TrackItems, error) {
	return s.homework.ItemsWhere(dbctx.Context{Ctx: ctx}, userID, pred)
}

func (s *progressService) Completed(ctx context.Context, userID uuid.UUID) (types.TrackItems, error) {
	return s.ItemsWhere(ctx, userID, learningrepo.CompletedSubmissions())
}

func (s *progressService) Nitpicker(ctx context.Context, userID uuid.UUID) (types.TrackItems, error) {
	return s.ItemsWhere(ctx, userID, learningrepo.NitpickerExercises())
}

// Dashboard runs the three groupings concurrently; each is a single query.
func (s *progressService) Dashboard(ctx context.Context, userID uuid.UUID) (*types.Dashboard, error) {
	out := &types.Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.Report(gctx, userID)
		out.Progress = r
		return err
	})
	g.Go(func() error {
		items, err := s.Completed(gctx, userID)
		out.Completed = items
		return err
	})
	g.Go(func() error {
		items, err := s.Nitpicker(gctx, userID)
		out.Nitpicker = items
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("dashboard query failed", "user_id", userID, "error", err)
		return nil, err
	}
	return out, nil
}

func (s *progressService) LatestIterationsFor(ctx context.Context, userID uuid.UUID) ([]*types.Submission, error) {
	return s.submissions.LatestPerExerciseForUser(dbctx.Context{Ctx: ctx}, userID)
}
