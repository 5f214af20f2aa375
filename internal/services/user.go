package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/data/repos"
	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type UserService interface {
	Register(ctx context.Context, username, avatarURL string, mastery []string) (*types.User, error)
	Authenticate(ctx context.Context, key string) (*types.User, error)

	WorkingOn(ctx context.Context, userID uuid.UUID, problem types.Problem) (bool, error)
	CompletedProblem(ctx context.Context, userID uuid.UUID, problem types.Problem) (bool, error)
	LatestSubmissionOn(ctx context.Context, userID uuid.UUID, problem types.Problem) (*types.Submission, error)
	NitpickerOn(ctx context.Context, user *types.User, problem types.Problem) (bool, error)
	IsNitpicker(ctx context.Context, user *types.User) (bool, error)
	NitpickerTracks(ctx context.Context, user *types.User) ([]string, error)
	OnboardingSteps(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type UserServiceDeps struct {
	Log         *logger.Logger
	Users       repos.UserRepo
	Exercises   repos.UserExerciseRepo
	Submissions repos.SubmissionRepo
	Events      repos.LifecycleEventRepo
	Milestones  MilestoneRecorder
}

type userService struct {
	log  *logger.Logger
	deps UserServiceDeps
}

func NewUserService(deps UserServiceDeps) UserService {
	return &userService{log: deps.Log.With("service", "UserService"), deps: deps}
}

// Register creates a user with a fresh API key and records the "joined"
// milestone.
func (s *userService) Register(ctx context.Context, username, avatarURL string, mastery []string) (*types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	taken, err := s.deps.Users.UsernameExists(dbc, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %q", ErrUsernameTaken, username)
	}
	if i := strings.Index(avatarURL, "?"); i >= 0 {
		avatarURL = avatarURL[:i]
	}
	u := &types.User{Username: username, AvatarURL: avatarURL, Mastery: mastery}
	created, err := s.deps.Users.Create(dbc, []*types.User{u})
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("user not created")
	}
	u = created[0]
	if s.deps.Milestones != nil {
		BestEffort(ctx, s.log, "user.milestone.joined", func(ctx context.Context) error {
			return s.deps.Milestones.RecordMilestone(ctx, u.ID, types.MilestoneJoined)
		})
	}
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, key string) (*types.User, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrUnknownAPIKey
	}
	u, err := s.deps.Users.GetByKey(dbctx.Context{Ctx: ctx}, key)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnknownAPIKey
	}
	return u, nil
}

// WorkingOn reports whether the user has a pending iteration on problem.
func (s *userService) WorkingOn(ctx context.Context, userID uuid.UUID, problem types.Problem) (bool, error) {
	n, err := s.deps.Submissions.CountForUserProblem(dbctx.Context{Ctx: ctx}, userID, problem, []string{learning.StatePending})
	return n > 0, err
}

func (s *userService) CompletedProblem(ctx context.Context, userID uuid.UUID, problem types.Problem) (bool, error) {
	n, err := s.deps.Submissions.CountForUserProblem(dbctx.Context{Ctx: ctx}, userID, problem, []string{learning.StateDone})
	return n > 0, err
}

func (s *userService) LatestSubmissionOn(ctx context.Context, userID uuid.UUID, problem types.Problem) (*types.Submission, error) {
	subs, err := s.deps.Submissions.ListForUserProblem(dbctx.Context{Ctx: ctx}, userID, problem)
	if err != nil || len(subs) == 0 {
		return nil, err
	}
	return subs[0], nil
}

// NitpickerOn is true for locksmiths of the track or when the exercise was
// unlocked.
func (s *userService) NitpickerOn(ctx context.Context, user *types.User, problem types.Problem) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.HasMastery(problem.TrackID) {
		return true, nil
	}
	return s.deps.Exercises.IsUnlocked(dbctx.Context{Ctx: ctx}, user.ID, problem)
}

func (s *userService) IsNitpicker(ctx context.Context, user *types.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.Locksmith() {
		return true, nil
	}
	n, err := s.deps.Submissions.CountDoneForUser(dbctx.Context{Ctx: ctx}, user.ID)
	return n > 0, err
}

// NitpickerTracks is the union of unlocked tracks and mastery.
func (s *userService) NitpickerTracks(ctx context.Context, user *types.User) ([]string, error) {
	if user == nil {
		return nil, nil
	}
	unlocked, err := s.deps.Exercises.UnlockedTracks(dbctx.Context{Ctx: ctx}, user.ID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := []string{}
	for _, t := range append(unlocked, user.Mastery...) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *userService) OnboardingSteps(ctx context.Context, userID uuid.UUID) ([]string, error) {
	events, err := s.deps.Events.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Key)
	}
	return out, nil
}
