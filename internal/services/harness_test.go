package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/iterations-backend/internal/data/aggregates"
	"github.com/yungbote/iterations-backend/internal/data/repos"
	repotest "github.com/yungbote/iterations-backend/internal/data/repos/testutil"
	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

// harness wires real repos and aggregates over a per-test database.
type harness struct {
	db  *gorm.DB
	log *logger.Logger
	now time.Time

	users       repos.UserRepo
	exercises   repos.UserExerciseRepo
	submissions repos.SubmissionRepo
	comments    repos.CommentRepo
	likes       repos.LikeRepo
	mutes       repos.MuteRepo
	viewers     repos.ViewerRepo
	events      repos.LifecycleEventRepo
	logEntries  repos.LogEntryRepo
	homework    repos.HomeworkRepo
	feeds       repos.SubmissionFeedRepo

	notifier   *recordingNotifier
	milestones MilestoneRecorder

	iterationSvc  IterationService
	exerciseSvc   ExerciseService
	engagementSvc EngagementService
	progressSvc   ProgressService
	userSvc       UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	h := &harness{
		db:          db,
		log:         log,
		now:         time.Now().UTC(),
		users:       repos.NewUserRepo(db, log),
		exercises:   repos.NewUserExerciseRepo(db, log),
		submissions: repos.NewSubmissionRepo(db, log),
		comments:    repos.NewCommentRepo(db, log),
		likes:       repos.NewLikeRepo(db, log),
		mutes:       repos.NewMuteRepo(db, log),
		viewers:     repos.NewViewerRepo(db, log),
		events:      repos.NewLifecycleEventRepo(db, log),
		logEntries:  repos.NewLogEntryRepo(db, log),
		homework:    repos.NewHomeworkRepo(db, log),
		feeds:       repos.NewSubmissionFeedRepo(db, log),
		notifier:    &recordingNotifier{},
	}
	h.milestones = NewMilestoneRecorder(log, h.events)
	clock := func() time.Time { return h.now }

	base := aggregates.BaseDeps{DB: db, Log: log, Now: clock}
	iterAgg := aggregates.NewIterationAggregate(aggregates.IterationAggregateDeps{
		Base: base, Exercises: h.exercises, Submissions: h.submissions,
	})
	exAgg := aggregates.NewExerciseAggregate(aggregates.ExerciseAggregateDeps{
		Base: base, Exercises: h.exercises, Submissions: h.submissions,
	})
	engAgg := aggregates.NewEngagementAggregate(aggregates.EngagementAggregateDeps{
		Base: base, Submissions: h.submissions, Likes: h.likes, Mutes: h.mutes, Comments: h.comments,
	})

	h.iterationSvc = NewIterationService(IterationServiceDeps{
		Log:        log,
		Users:      h.users,
		LogEntries: h.logEntries,
		Validator:  NewPathValidator([]string{"ruby", "go"}, h.submissions),
		Iterations: iterAgg,
		Notifier:   h.notifier,
		Milestones: h.milestones,
		Now:        clock,
	})
	h.exerciseSvc = NewExerciseService(log, exAgg)
	h.engagementSvc = NewEngagementService(EngagementServiceDeps{
		Log:         log,
		Submissions: h.submissions,
		Mutes:       h.mutes,
		Viewers:     h.viewers,
		Comments:    h.comments,
		Feeds:       h.feeds,
		Engagement:  engAgg,
		Notifier:    h.notifier,
		Now:         clock,
	})
	h.progressSvc = NewProgressService(log, h.homework, h.submissions)
	h.userSvc = NewUserService(UserServiceDeps{
		Log:         log,
		Users:       h.users,
		Exercises:   h.exercises,
		Submissions: h.submissions,
		Events:      h.events,
		Milestones:  h.milestones,
	})
	return h
}

func (h *harness) register(t *testing.T, name string) *types.User {
	t.Helper()
	u, err := h.userSvc.Register(context.Background(), name+"-"+uuid.NewString()[:8], "", nil)
	if err != nil {
		t.Fatalf("Register %s: %v", name, err)
	}
	return u
}

type notifyCall struct {
	SubmissionID uuid.UUID
	Kind         string
	ActorID      uuid.UUID
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (n *recordingNotifier) NotifyAll(_ context.Context, sub *types.Submission, kind string, actor *types.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := notifyCall{SubmissionID: sub.ID, Kind: kind}
	if actor != nil {
		c.ActorID = actor.ID
	}
	n.calls = append(n.calls, c)
	return n.err
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) Calls() []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifyCall(nil), n.calls...)
}
