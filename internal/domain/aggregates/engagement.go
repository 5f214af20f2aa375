package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
)

var EngagementAggregateContract = Contract{
	Name:             "Learning.EngagementAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Keeps is_liked and nit_count consistent with the like and comment sets.",
}

// EngagementAggregate owns the counters derived from the engagement sets.
type EngagementAggregate interface {
	Aggregate

	Like(ctx context.Context, in EngagementInput) (EngagementResult, error)
	Unlike(ctx context.Context, in EngagementInput) (EngagementResult, error)
	Mute(ctx context.Context, in EngagementInput) (EngagementResult, error)
	Unmute(ctx context.Context, in EngagementInput) (EngagementResult, error)
	UnmuteAll(ctx context.Context, submissionID uuid.UUID) error
	AddComment(ctx context.Context, in AddCommentInput) (AddCommentResult, error)
}

type EngagementInput struct {
	SubmissionID uuid.UUID
	UserID       uuid.UUID
}

type EngagementResult struct {
	SubmissionID uuid.UUID
	IsLiked      bool
	Likes        int64
	Muted        bool
}

type AddCommentInput struct {
	SubmissionID uuid.UUID
	UserID       uuid.UUID
	Body         string
	HTMLBody     string
	At           time.Time
}

type AddCommentResult struct {
	Comment    *learning.Comment
	Submission *learning.Submission
}
