package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/iterations-backend/internal/http/handlers"
	httpMW "github.com/yungbote/iterations-backend/internal/http/middleware"
	"github.com/yungbote/iterations-backend/internal/observability"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	TracingEnabled bool
	ServiceName    string
	AllowedOrigins []string

	SubmitLimit   httpMW.RateLimitConfig
	RegisterLimit httpMW.RateLimitConfig

	AuthMiddleware *httpMW.AuthMiddleware

	UserHandler       *httpH.UserHandler
	IterationHandler  *httpH.IterationHandler
	ProgressHandler   *httpH.ProgressHandler
	ExerciseHandler   *httpH.ExerciseHandler
	EngagementHandler *httpH.EngagementHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "iterations-backend"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, "/metrics"))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		if cfg.UserHandler != nil {
			api.POST("/users", httpMW.RateLimit(cfg.RegisterLimit), cfg.UserHandler.Register)
		}
		// The client sends its key in the body.
		if cfg.IterationHandler != nil {
			api.POST("/user/assignments", httpMW.RateLimit(cfg.SubmitLimit), cfg.IterationHandler.Submit)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAPIKey())
		}

		if cfg.UserHandler != nil {
			protected.GET("/user/me", cfg.UserHandler.GetMe)
		}

		if cfg.IterationHandler != nil {
			protected.DELETE("/user/assignments", cfg.IterationHandler.Unsubmit)
			protected.GET("/iterations/latest", cfg.IterationHandler.Latest)
		}

		if cfg.ProgressHandler != nil {
			protected.GET("/user/progress", cfg.ProgressHandler.Progress)
			protected.GET("/user/dashboard", cfg.ProgressHandler.Dashboard)
			protected.GET("/user/completed", cfg.ProgressHandler.Completed)
		}

		if cfg.ExerciseHandler != nil {
			protected.POST("/exercises/:track/:slug/close", cfg.ExerciseHandler.Close)
			protected.POST("/exercises/:track/:slug/reopen", cfg.ExerciseHandler.Reopen)
			protected.POST("/exercises/:track/:slug/unlock", cfg.ExerciseHandler.Unlock)
		}

		if cfg.EngagementHandler != nil {
			protected.POST("/submissions/:key/like", cfg.EngagementHandler.Like)
			protected.DELETE("/submissions/:key/like", cfg.EngagementHandler.Unlike)
			protected.POST("/submissions/:key/mute", cfg.EngagementHandler.Mute)
			protected.DELETE("/submissions/:key/mute", cfg.EngagementHandler.Unmute)
			protected.POST("/submissions/:key/views", cfg.EngagementHandler.View)
			protected.GET("/submissions/:key/comments", cfg.EngagementHandler.ListComments)
			protected.POST("/submissions/:key/comments", cfg.EngagementHandler.AddComment)

			protected.GET("/feeds/aging", cfg.EngagementHandler.AgingFeed)
			protected.GET("/feeds/recent", cfg.EngagementHandler.RecentFeed)
		}
	}

	return r
}
