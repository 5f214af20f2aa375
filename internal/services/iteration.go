package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/data/repos"
	types "github.com/yungbote/iterations-backend/internal/domain"
	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/observability"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type SubmitInput struct {
	Key       string
	Code      string
	Path      string
	UserAgent string
}

type SubmitResult struct {
	User       *types.User
	Submission *types.Submission
	Exercise   *types.UserExercise
	Superseded *types.Submission
}

// IterationService accepts and withdraws iterations for API clients.
type IterationService interface {
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	Unsubmit(ctx context.Context, userID uuid.UUID) (*domainagg.UnsubmitResult, error)
}

type IterationServiceDeps struct {
	Log        *logger.Logger
	Users      repos.UserRepo
	LogEntries repos.LogEntryRepo
	Validator  AttemptValidator
	Iterations domainagg.IterationAggregate
	Notifier   Notifier
	Milestones MilestoneRecorder
	// UnsubmitMaxAge defaults to 30 minutes.
	UnsubmitMaxAge time.Duration
	Now            func() time.Time
}

type iterationService struct {
	log  *logger.Logger
	deps IterationServiceDeps
}

func NewIterationService(deps IterationServiceDeps) IterationService {
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.UnsubmitMaxAge <= 0 {
		deps.UnsubmitMaxAge = 30 * time.Minute
	}
	return &iterationService{log: deps.Log.With("service", "IterationService"), deps: deps}
}

func (s *iterationService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	const op = "Learning.Iteration.Submit"
	key := strings.TrimSpace(in.Key)
	dbc := dbctx.Context{Ctx: ctx}

	var user *types.User
	if key != "" {
		u, err := s.deps.Users.GetByKey(dbc, key)
		if err != nil {
			return nil, fmt.Errorf("lookup api key: %w", err)
		}
		user = u
	}

	// The raw request is kept for support even when the key is unknown.
	BestEffort(ctx, s.log, "iteration.log_entry", func(ctx context.Context) error {
		return s.recordLogEntry(ctx, user, in)
	})

	if user == nil {
		return nil, ErrUnknownAPIKey
	}

	problem, ok := s.deps.Validator.Resolve(in.Path)
	if !ok {
		msg := fmt.Sprintf("unknown problem (track: %s, slug: %s, path: %s)", problem.TrackID, problem.Slug, in.Path)
		s.log.Warn("invalid attempt submitted", "user_id", user.ID, "path", in.Path)
		observability.Current().IncIteration("rejected_unknown_problem", problem.TrackID)
		return nil, domainagg.NewError(domainagg.CodeValidation, op, msg, learning.ErrUnknownProblem)
	}
	dup, err := s.deps.Validator.IsDuplicate(ctx, user.ID, problem, in.Code)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if dup {
		observability.Current().IncIteration("rejected_duplicate", problem.TrackID)
	}

	res, err := s.deps.Iterations.AcceptAttempt(ctx, domainagg.AcceptAttemptInput{
		UserID:    user.ID,
		Problem:   problem,
		Filename:  AttemptFilename(in.Path),
		Code:      in.Code,
		Duplicate: dup,
		At:        s.deps.Now(),
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncIteration("accepted", problem.TrackID)

	if s.deps.Notifier != nil {
		BestEffort(ctx, s.log, "iteration.notify", func(ctx context.Context) error {
			return s.deps.Notifier.NotifyAll(ctx, res.Submission, NotifyKindCode, user)
		})
	}
	if s.deps.Milestones != nil {
		// Clients that never fetched still get a "fetched" milestone.
		for _, m := range []string{types.MilestoneFetched, types.MilestoneSubmitted} {
			m := m
			BestEffort(ctx, s.log, "iteration.milestone."+m, func(ctx context.Context) error {
				return s.deps.Milestones.RecordMilestone(ctx, user.ID, m)
			})
		}
	}

	return &SubmitResult{
		User:       user,
		Submission: res.Submission,
		Exercise:   res.Exercise,
		Superseded: res.Superseded,
	}, nil
}

func (s *iterationService) recordLogEntry(ctx context.Context, user *types.User, in SubmitInput) error {
	if s.deps.LogEntries == nil {
		return nil
	}
	body, err := json.Marshal(map[string]string{
		"key":        in.Key,
		"code":       in.Code,
		"path":       in.Path,
		"user_agent": in.UserAgent,
	})
	if err != nil {
		return err
	}
	entry := &types.LogEntry{
		Key:       in.Key,
		Body:      body,
		CreatedAt: s.deps.Now(),
	}
	if user != nil {
		id := user.ID
		entry.UserID = &id
	}
	return s.deps.LogEntries.Create(dbctx.Context{Ctx: ctx}, entry)
}

func (s *iterationService) Unsubmit(ctx context.Context, userID uuid.UUID) (*domainagg.UnsubmitResult, error) {
	res, err := s.deps.Iterations.Unsubmit(ctx, domainagg.UnsubmitInput{
		UserID: userID,
		Now:    s.deps.Now(),
		MaxAge: s.deps.UnsubmitMaxAge,
	})
	if err != nil {
		return nil, err
	}
	track := ""
	if res.Deleted != nil {
		track = res.Deleted.TrackID
	}
	observability.Current().IncIteration("unsubmitted", track)
	return &res, nil
}
