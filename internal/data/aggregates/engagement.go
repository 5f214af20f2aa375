package aggregates

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/data/repos"
	types "github.com/yungbote/iterations-backend/internal/domain"
	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

type EngagementAggregateDeps struct {
	Base BaseDeps

	Submissions repos.SubmissionRepo
	Likes       repos.LikeRepo
	Mutes       repos.MuteRepo
	Comments    repos.CommentRepo
}

type engagementAggregate struct {
	deps EngagementAggregateDeps
}

func NewEngagementAggregate(deps EngagementAggregateDeps) domainagg.EngagementAggregate {
	deps.Base = deps.Base.withDefaults()
	return &engagementAggregate{deps: deps}
}

func (a *engagementAggregate) Contract() domainagg.Contract {
	return domainagg.EngagementAggregateContract
}

func (a *engagementAggregate) validate(op string, in domainagg.EngagementInput) error {
	if in.SubmissionID == uuid.Nil || in.UserID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "submission_id and user_id are required", nil)
	}
	if a.deps.Submissions == nil || a.deps.Likes == nil || a.deps.Mutes == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "engagement aggregate repos not configured", nil)
	}
	return nil
}

func (a *engagementAggregate) lockSubmission(dbc dbctx.Context, op string, id uuid.UUID) (*types.Submission, error) {
	sub, err := a.deps.Submissions.LockByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "submission not found", nil)
	}
	return sub, nil
}

// syncLiked recomputes is_liked from the like set of a locked submission.
func (a *engagementAggregate) syncLiked(dbc dbctx.Context, sub *types.Submission) (int64, error) {
	n, err := a.deps.Likes.Count(dbc, sub.ID)
	if err != nil {
		return 0, err
	}
	liked := n > 0
	if liked != sub.IsLiked {
		if err := a.deps.Submissions.UpdateFields(dbc, sub.ID, map[string]interface{}{"is_liked": liked}); err != nil {
			return 0, err
		}
		sub.IsLiked = liked
	}
	return n, nil
}

// Like adds the user to the like set and mutes the submission for them.
func (a *engagementAggregate) Like(ctx context.Context, in domainagg.EngagementInput) (domainagg.EngagementResult, error) {
	const op = "Learning.Engagement.Like"
	out := domainagg.EngagementResult{SubmissionID: in.SubmissionID}
	if err := a.validate(op, in); err != nil {
		return out, err
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sub, err := a.lockSubmission(dbc, op, in.SubmissionID)
		if err != nil {
			return err
		}
		if _, err := a.deps.Likes.Add(dbc, sub.ID, in.UserID); err != nil {
			return err
		}
		if _, err := a.deps.Mutes.Add(dbc, sub.ID, in.UserID); err != nil {
			return err
		}
		n, err := a.syncLiked(dbc, sub)
		if err != nil {
			return err
		}
		out.IsLiked, out.Likes, out.Muted = sub.IsLiked, n, true
		return nil
	})
	if err != nil {
		return domainagg.EngagementResult{SubmissionID: in.SubmissionID}, err
	}
	return out, nil
}

// Unlike removes the user's like and their mute.
func (a *engagementAggregate) Unlike(ctx context.Context, in domainagg.EngagementInput) (domainagg.EngagementResult, error) {
	const op = "Learning.Engagement.Unlike"
	out := domainagg.EngagementResult{SubmissionID: in.SubmissionID}
	if err := a.validate(op, in); err != nil {
		return out, err
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sub, err := a.lockSubmission(dbc, op, in.SubmissionID)
		if err != nil {
			return err
		}
		if _, err := a.deps.Likes.Remove(dbc, sub.ID, in.UserID); err != nil {
			return err
		}
		if _, err := a.deps.Mutes.Remove(dbc, sub.ID, in.UserID); err != nil {
			return err
		}
		n, err := a.syncLiked(dbc, sub)
		if err != nil {
			return err
		}
		out.IsLiked, out.Likes, out.Muted = sub.IsLiked, n, false
		return nil
	})
	if err != nil {
		return domainagg.EngagementResult{SubmissionID: in.SubmissionID}, err
	}
	return out, nil
}

func (a *engagementAggregate) Mute(ctx context.Context, in domainagg.EngagementInput) (domainagg.EngagementResult, error) {
	return a.setMuted(ctx, "Learning.Engagement.Mute", in, true)
}

func (a *engagementAggregate) Unmute(ctx context.Context, in domainagg.EngagementInput) (domainagg.EngagementResult, error) {
	return a.setMuted(ctx, "Learning.Engagement.Unmute", in, false)
}

func (a *engagementAggregate) setMuted(ctx context.Context, op string, in domainagg.EngagementInput, muted bool) (domainagg.EngagementResult, error) {
	out := domainagg.EngagementResult{SubmissionID: in.SubmissionID}
	if err := a.validate(op, in); err != nil {
		return out, err
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sub, err := a.deps.Submissions.GetByID(dbc, in.SubmissionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "submission not found", nil)
		}
		if muted {
			_, err = a.deps.Mutes.Add(dbc, sub.ID, in.UserID)
		} else {
			_, err = a.deps.Mutes.Remove(dbc, sub.ID, in.UserID)
		}
		if err != nil {
			return err
		}
		n, err := a.deps.Likes.Count(dbc, sub.ID)
		if err != nil {
			return err
		}
		out.IsLiked, out.Likes, out.Muted = sub.IsLiked, n, muted
		return nil
	})
	if err != nil {
		return domainagg.EngagementResult{SubmissionID: in.SubmissionID}, err
	}
	return out, nil
}

// UnmuteAll clears every mute on the submission, typically after the owner
// posts a new iteration or comment.
func (a *engagementAggregate) UnmuteAll(ctx context.Context, submissionID uuid.UUID) error {
	const op = "Learning.Engagement.UnmuteAll"
	if submissionID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	if a.deps.Mutes == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "engagement aggregate repos not configured", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		_, err := a.deps.Mutes.RemoveAll(dbc, submissionID)
		return err
	})
}

// AddComment stores a comment. Comments from anyone but the owner count
// as nits.
func (a *engagementAggregate) AddComment(ctx context.Context, in domainagg.AddCommentInput) (domainagg.AddCommentResult, error) {
	const op = "Learning.Engagement.AddComment"
	var out domainagg.AddCommentResult
	if in.SubmissionID == uuid.Nil || in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "submission_id and user_id are required", nil)
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "comment body is empty", nil)
	}
	if a.deps.Submissions == nil || a.deps.Comments == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "engagement aggregate repos not configured", nil)
	}
	at := in.At.UTC()
	if in.At.IsZero() {
		at = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sub, err := a.lockSubmission(dbc, op, in.SubmissionID)
		if err != nil {
			return err
		}
		c := &types.Comment{
			SubmissionID: sub.ID,
			UserID:       in.UserID,
			Body:         body,
			HTMLBody:     in.HTMLBody,
			CreatedAt:    at,
			UpdatedAt:    at,
		}
		if err := a.deps.Comments.Create(dbc, c); err != nil {
			return err
		}
		if in.UserID != sub.UserID {
			if err := a.deps.Submissions.UpdateFields(dbc, sub.ID, map[string]interface{}{
				"nit_count": gorm.Expr("nit_count + ?", 1),
			}); err != nil {
				return err
			}
			sub.NitCount++
		}
		total, err := a.deps.Comments.CountBySubmission(dbc, sub.ID)
		if err != nil {
			return err
		}
		if int64(sub.NitCount) > total {
			return InvariantError("nit_count exceeds comment count")
		}
		out.Comment, out.Submission = c, sub
		return nil
	})
	if err != nil {
		return domainagg.AddCommentResult{}, err
	}
	return out, nil
}

