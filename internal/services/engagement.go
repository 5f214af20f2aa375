package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/data/repos"
	learningrepo "github.com/yungbote/iterations-backend/internal/data/repos/learning"
	types "github.com/yungbote/iterations-backend/internal/domain"
	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/observability"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

// EngagementService covers likes, mutes, views, comments and the review
// feeds. Submissions are addressed by their public key.
type EngagementService interface {
	Like(ctx context.Context, submissionKey string, userID uuid.UUID) (*domainagg.EngagementResult, error)
	Unlike(ctx context.Context, submissionKey string, userID uuid.UUID) (*domainagg.EngagementResult, error)
	Mute(ctx context.Context, submissionKey string, userID uuid.UUID) (*domainagg.EngagementResult, error)
	Unmute(ctx context.Context, submissionKey string, userID uuid.UUID) (*domainagg.EngagementResult, error)
	UnmuteAll(ctx context.Context, submissionKey string) error
	IsMutedBy(ctx context.Context, submissionKey string, userID uuid.UUID) (bool, error)

	RecordView(ctx context.Context, submissionKey string, userID uuid.UUID)
	ViewCount(ctx context.Context, submissionKey string) (int64, error)

	AddComment(ctx context.Context, submissionKey string, author *types.User, body string) (*domainagg.AddCommentResult, error)
	Comments(ctx context.Context, submissionKey string) ([]*types.Comment, error)

	AgingFeed(ctx context.Context, viewerID uuid.UUID, limit int) ([]*types.Submission, error)
	RecentFeed(ctx context.Context, viewerID uuid.UUID, limit int) ([]*types.Submission, error)
	CompletedFor(ctx context.Context, problem types.Problem, limit int) ([]*types.Submission, error)
	Related(ctx context.Context, submissionKey string) ([]*types.Submission, error)
	CommentsExceptOnOwnSubmissions(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Comment, error)
}

type EngagementServiceDeps struct {
	Log         *logger.Logger
	Submissions repos.SubmissionRepo
	Mutes       repos.MuteRepo
	Viewers     repos.ViewerRepo
	Comments    repos.CommentRepo
	Feeds       repos.SubmissionFeedRepo
	Engagement  domainagg.EngagementAggregate
	Renderer    Renderer
	Notifier    Notifier
	Now         func() time.Time
}

type engagementService struct {
	log  *logger.Logger
	deps EngagementServiceDeps
}

func NewEngagementService(deps EngagementServiceDeps) EngagementService {
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Renderer == nil {
		deps.Renderer = NewMarkdownRenderer()
	}
	return &engagementService{log: deps.Log.With("service", "EngagementService"), deps: deps}
}

func (s *engagementService) submission(ctx context.Context, key string) (*types.Submission, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrSubmissionNotFound
	}
	sub, err := s.deps.Submissions.GetByKey(dbctx.Context{Ctx: ctx}, key)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}
	return sub, nil
}

type engagementCall func(context.Context, domainagg.EngagementInput) (domainagg.EngagementResult, error)

func (s *engagementService) engage(ctx context.Context, action string, fn engagementCall, key string, userID uuid.UUID) (*domainagg.EngagementResult, error) {
	sub, err := s.submission(ctx, key)
	if err != nil {
		return nil, err
	}
	res, err := fn(ctx, domainagg.EngagementInput{SubmissionID: sub.ID, UserID: userID})
	if err != nil {
		return nil, err
	}
	observability.Current().IncEngagement(action)
	return &res, nil
}

func (s *engagementService) Like(ctx context.Context, key string, userID uuid.UUID) (*domainagg.EngagementResult, error) {
	return s.engage(ctx, "like", s.deps.Engagement.Like, key, userID)
}

func (s *engagementService) Unlike(ctx context.Context, key string, userID uuid.UUID) (*domainagg.EngagementResult, error) {
	return s.engage(ctx, "unlike", s.deps.Engagement.Unlike, key, userID)
}

func (s *engagementService) Mute(ctx context.Context, key string, userID uuid.UUID) (*domainagg.EngagementResult, error) {
	return s.engage(ctx, "mute", s.deps.Engagement.Mute, key, userID)
}

func (s *engagementService) Unmute(ctx context.Context, key string, userID uuid.UUID) (*domainagg.EngagementResult, error) {
	return s.engage(ctx, "unmute", s.deps.Engagement.Unmute, key, userID)
}

func (s *engagementService) UnmuteAll(ctx context.Context, key string) error {
	sub, err := s.submission(ctx, key)
	if err != nil {
		return err
	}
	if err := s.deps.Engagement.UnmuteAll(ctx, sub.ID); err != nil {
		return err
	}
	observability.Current().IncEngagement("unmute_all")
	return nil
}

func (s *engagementService) IsMutedBy(ctx context.Context, key string, userID uuid.UUID) (bool, error) {
	sub, err := s.submission(ctx, key)
	if err != nil {
		return false, err
	}
	return s.deps.Mutes.IsMutedBy(dbctx.Context{Ctx: ctx}, sub.ID, userID)
}

// RecordView never fails the caller; an unknown key is simply not counted.
func (s *engagementService) RecordView(ctx context.Context, key string, userID uuid.UUID) {
	BestEffort(ctx, s.log, "engagement.view", func(ctx context.Context) error {
		sub, err := s.submission(ctx, key)
		if err != nil {
			return err
		}
		if _, err := s.deps.Viewers.Record(dbctx.Context{Ctx: ctx}, sub.ID, userID); err != nil {
			return err
		}
		observability.Current().IncEngagement("view")
		return nil
	})
}

func (s *engagementService) ViewCount(ctx context.Context, key string) (int64, error) {
	sub, err := s.submission(ctx, key)
	if err != nil {
		return 0, err
	}
	return s.deps.Viewers.Count(dbctx.Context{Ctx: ctx}, sub.ID)
}

func (s *engagementService) AddComment(ctx context.Context, key string, author *types.User, body string) (*domainagg.AddCommentResult, error) {
	if author == nil {
		return nil, ErrUnknownAPIKey
	}
	sub, err := s.submission(ctx, key)
	if err != nil {
		return nil, err
	}
	res, err := s.deps.Engagement.AddComment(ctx, domainagg.AddCommentInput{
		SubmissionID: sub.ID,
		UserID:       author.ID,
		Body:         body,
		HTMLBody:     s.deps.Renderer.Render(body),
		At:           s.deps.Now(),
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncEngagement("comment")
	if s.deps.Notifier != nil {
		BestEffort(ctx, s.log, "engagement.notify", func(ctx context.Context) error {
			return s.deps.Notifier.NotifyAll(ctx, res.Submission, NotifyKindComment, author)
		})
	}
	return &res, nil
}

func (s *engagementService) Comments(ctx context.Context, key string) ([]*types.Comment, error) {
	sub, err := s.submission(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.deps.Comments.ListBySubmission(dbctx.Context{Ctx: ctx}, sub.ID)
}

// AgingFeed lists nitted submissions still awaiting review after three
// weeks that the viewer has neither commented on, liked nor muted.
func (s *engagementService) AgingFeed(ctx context.Context, viewerID uuid.UUID, limit int) ([]*types.Submission, error) {
	f := learningrepo.Aging(s.deps.Now()).Limit(limit)
	if viewerID != uuid.Nil {
		f = f.NotSubmittedBy(viewerID).NotCommentedOnBy(viewerID).NotLikedBy(viewerID).UnmutedFor(viewerID)
	}
	return s.deps.Feeds.List(dbctx.Context{Ctx: ctx}, f)
}

func (s *engagementService) RecentFeed(ctx context.Context, viewerID uuid.UUID, limit int) ([]*types.Submission, error) {
	f := learningrepo.Recent(s.deps.Now()).Limit(limit)
	if viewerID != uuid.Nil {
		f = f.UnmutedFor(viewerID)
	}
	return s.deps.Feeds.List(dbctx.Context{Ctx: ctx}, f)
}

func (s *engagementService) CompletedFor(ctx context.Context, problem types.Problem, limit int) ([]*types.Submission, error) {
	return s.deps.Feeds.List(dbctx.Context{Ctx: ctx}, learningrepo.CompletedFor(problem).Limit(limit))
}

func (s *engagementService) Related(ctx context.Context, key string) ([]*types.Submission, error) {
	sub, err := s.submission(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.deps.Feeds.List(dbctx.Context{Ctx: ctx}, learningrepo.Related(sub))
}

func (s *engagementService) CommentsExceptOnOwnSubmissions(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Comment, error) {
	return s.deps.Feeds.CommentsExceptOnOwnSubmissions(dbctx.Context{Ctx: ctx}, userID, limit)
}
