package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/iterations-backend/internal/data/aggregates"
	"github.com/yungbote/iterations-backend/internal/observability"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
	"github.com/yungbote/iterations-backend/internal/services"
)

type Services struct {
	Iteration  services.IterationService
	Exercise   services.ExerciseService
	Engagement services.EngagementService
	Progress   services.ProgressService
	User       services.UserService

	Notifier services.Notifier
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, r Repos, metrics *observability.Metrics, notifier services.Notifier) (Services, error) {
	log.Info("Wiring services...")

	if notifier == nil {
		n, err := services.NewNotifier(ctx, log, cfg.Notify)
		if err != nil {
			return Services{}, fmt.Errorf("init notifier: %w", err)
		}
		notifier = n
	}

	base := aggregates.BaseDeps{
		DB:     db,
		Log:    log,
		Runner: aggregates.NewRetryingTxRunner(db, cfg.TxAttempts, cfg.TxBackoff),
		Hooks:  aggregates.ChainHooks(aggregates.NewObservabilityHooks(metrics), aggregates.NewLogHooks(log)),
	}
	iterAgg := aggregates.NewIterationAggregate(aggregates.IterationAggregateDeps{
		Base:        base,
		Exercises:   r.UserExercise,
		Submissions: r.Submission,
	})
	exAgg := aggregates.NewExerciseAggregate(aggregates.ExerciseAggregateDeps{
		Base:        base,
		Exercises:   r.UserExercise,
		Submissions: r.Submission,
	})
	engAgg := aggregates.NewEngagementAggregate(aggregates.EngagementAggregateDeps{
		Base:        base,
		Submissions: r.Submission,
		Likes:       r.Like,
		Mutes:       r.Mute,
		Comments:    r.Comment,
	})

	if err := aggregates.CheckContracts(iterAgg, exAgg, engAgg); err != nil {
		return Services{}, err
	}

	milestones := services.NewMilestoneRecorder(log, r.LifecycleEvent)

	return Services{
		Iteration: services.NewIterationService(services.IterationServiceDeps{
			Log:            log,
			Users:          r.User,
			LogEntries:     r.LogEntry,
			Validator:      services.NewPathValidator(cfg.KnownTracks, r.Submission),
			Iterations:     iterAgg,
			Notifier:       notifier,
			Milestones:     milestones,
			UnsubmitMaxAge: cfg.UnsubmitMaxAge,
		}),
		Exercise: services.NewExerciseService(log, exAgg),
		Engagement: services.NewEngagementService(services.EngagementServiceDeps{
			Log:         log,
			Submissions: r.Submission,
			Mutes:       r.Mute,
			Viewers:     r.Viewer,
			Comments:    r.Comment,
			Feeds:       r.Feed,
			Engagement:  engAgg,
			Renderer:    services.NewMarkdownRenderer(),
			Notifier:    notifier,
		}),
		Progress: services.NewProgressService(log, r.Homework, r.Submission),
		User: services.NewUserService(services.UserServiceDeps{
			Log:         log,
			Users:       r.User,
			Exercises:   r.UserExercise,
			Submissions: r.Submission,
			Events:      r.LifecycleEvent,
			Milestones:  milestones,
		}),
		Notifier: notifier,
	}, nil
}
