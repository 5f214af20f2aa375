package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

const (
	AgingThreshold = 21 * 24 * time.Hour
	RecentWindow   = 7 * 24 * time.Hour

	defaultFeedLimit = 50
	maxFeedLimit     = 500
)

// FeedFilter composes submission feed conditions. The zero value matches
// every submission, newest first.
type FeedFilter struct {
	states           []string
	withNits         bool
	createdBefore    *time.Time
	createdAfter     *time.Time
	problem          *types.Problem
	ownerID          uuid.UUID
	notSubmittedBy   uuid.UUID
	notCommentedOnBy uuid.UUID
	notLikedBy       uuid.UUID
	unmutedFor       uuid.UUID
	chronological    bool
	limit            int
	none             bool
}

// Aging matches submissions awaiting review that already received nits and
// were created more than three weeks before now.
func Aging(now time.Time) FeedFilter {
	cutoff := now.UTC().Add(-AgingThreshold)
	return FeedFilter{
		states:        learning.AwaitingReviewStates,
		withNits:      true,
		createdBefore: &cutoff,
	}
}

// Recent matches submissions created within the last seven days.
func Recent(now time.Time) FeedFilter {
	since := now.UTC().Add(-RecentWindow)
	return FeedFilter{createdAfter: &since}
}

// CompletedFor matches done submissions on a problem.
func CompletedFor(problem types.Problem) FeedFilter {
	p := problem
	return FeedFilter{states: []string{learning.StateDone}, problem: &p}
}

// Related matches the submission's lineage in chronological order.
func Related(sub *types.Submission) FeedFilter {
	if sub == nil {
		return FeedFilter{none: true}
	}
	p := sub.Problem()
	return FeedFilter{problem: &p, ownerID: sub.UserID, chronological: true}
}

func (f FeedFilter) NotSubmittedBy(userID uuid.UUID) FeedFilter {
	f.notSubmittedBy = userID
	return f
}

func (f FeedFilter) NotCommentedOnBy(userID uuid.UUID) FeedFilter {
	f.notCommentedOnBy = userID
	return f
}

func (f FeedFilter) NotLikedBy(userID uuid.UUID) FeedFilter {
	f.notLikedBy = userID
	return f
}

func (f FeedFilter) UnmutedFor(userID uuid.UUID) FeedFilter {
	f.unmutedFor = userID
	return f
}

func (f FeedFilter) Limit(n int) FeedFilter {
	f.limit = n
	return f
}

func (f FeedFilter) apply(q *gorm.DB) *gorm.DB {
	if f.none {
		q = q.Where("1 = 0")
	}
	if len(f.states) > 0 {
		q = q.Where("state IN ?", f.states)
	}
	if f.withNits {
		q = q.Where("nit_count > 0")
	}
	if f.createdBefore != nil {
		q = q.Where("created_at < ?", *f.createdBefore)
	}
	if f.createdAfter != nil {
		q = q.Where("created_at > ?", *f.createdAfter)
	}
	if f.problem != nil {
		q = q.Where("track_id = ?", f.problem.TrackID)
		if f.problem.Slug != "" {
			q = q.Where("slug = ?", f.problem.Slug)
		}
	}
	if f.ownerID != uuid.Nil {
		q = q.Where("user_id = ?", f.ownerID)
	}
	if f.notSubmittedBy != uuid.Nil {
		q = q.Where("user_id <> ?", f.notSubmittedBy)
	}
	if f.notCommentedOnBy != uuid.Nil {
		q = q.Where("id NOT IN (SELECT submission_id FROM comment WHERE user_id = ?)", f.notCommentedOnBy)
	}
	if f.notLikedBy != uuid.Nil {
		q = q.Where("id NOT IN (SELECT submission_id FROM submission_like WHERE user_id = ?)", f.notLikedBy)
	}
	if f.unmutedFor != uuid.Nil {
		q = q.Where("id NOT IN (SELECT submission_id FROM muted_submission WHERE user_id = ?)", f.unmutedFor)
	}
	if f.chronological {
		q = q.Order("created_at ASC").Order("version ASC")
	} else {
		q = q.Order("created_at DESC").Order("version DESC")
	}
	return q.Limit(feedLimit(f.limit))
}

// feedLimit defaults non-positive limits and caps large ones.
func feedLimit(n int) int {
	if n <= 0 {
		return defaultFeedLimit
	}
	if n > maxFeedLimit {
		return maxFeedLimit
	}
	return n
}

// SubmissionFeedRepo serves the read-only review feeds.
type SubmissionFeedRepo interface {
	List(dbc dbctx.Context, f FeedFilter) ([]*types.Submission, error)
	// CommentsExceptOnOwnSubmissions lists comments the learner wrote on
	// other learners' submissions, newest first.
	CommentsExceptOnOwnSubmissions(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Comment, error)
}

type submissionFeedRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionFeedRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionFeedRepo {
	return &submissionFeedRepo{db: db, log: baseLog.With("repo", "SubmissionFeedRepo")}
}

func (r *submissionFeedRepo) List(dbc dbctx.Context, f FeedFilter) ([]*types.Submission, error) {
	out := []*types.Submission{}
	if err := f.apply(dbc.DB(r.db).Model(&types.Submission{})).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *submissionFeedRepo) CommentsExceptOnOwnSubmissions(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Comment, error) {
	out := []*types.Comment{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Where("submission_id IN (SELECT id FROM submission WHERE user_id <> ?)", userID).
		Order("created_at DESC").
		Limit(feedLimit(limit)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
