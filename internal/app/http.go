package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/iterations-backend/internal/http"
	httpH "github.com/yungbote/iterations-backend/internal/http/handlers"
	httpMW "github.com/yungbote/iterations-backend/internal/http/middleware"
	"github.com/yungbote/iterations-backend/internal/observability"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	User       *httpH.UserHandler
	Iteration  *httpH.IterationHandler
	Progress   *httpH.ProgressHandler
	Exercise   *httpH.ExerciseHandler
	Engagement *httpH.EngagementHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	ping := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return Handlers{
		Health: httpH.NewHealthHandler(ping),
		User:   httpH.NewUserHandler(services.User),
		Iteration: httpH.NewIterationHandler(httpH.IterationHandlerDeps{
			Log:        log,
			Iterations: services.Iteration,
			Progress:   services.Progress,
		}),
		Progress:   httpH.NewProgressHandler(services.Progress),
		Exercise:   httpH.NewExerciseHandler(services.Exercise),
		Engagement: httpH.NewEngagementHandler(log, services.Engagement),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.User),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		TracingEnabled:    cfg.Otel.Enabled,
		ServiceName:       cfg.Otel.ServiceName,
		AllowedOrigins:    cfg.AllowedOrigins,
		SubmitLimit:       httpMW.RateLimitConfig{PerMinute: cfg.SubmitRatePerMinute, Burst: cfg.SubmitRateBurst},
		RegisterLimit:     httpMW.RateLimitConfig{PerMinute: cfg.RegisterRatePerMinute, KeyFunc: httpMW.ClientIP},
		AuthMiddleware:    middleware.Auth,
		HealthHandler:     handlers.Health,
		UserHandler:       handlers.User,
		IterationHandler:  handlers.Iteration,
		ProgressHandler:   handlers.Progress,
		ExerciseHandler:   handlers.Exercise,
		EngagementHandler: handlers.Engagement,
	})
}
