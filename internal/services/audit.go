package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/iterations-backend/internal/data/repos"
	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

// Issue kinds reported by the lineage auditor.
const (
	IssueVersionGap     = "version_gap"
	IssueCountMismatch  = "count_mismatch"
	IssueMultipleActive = "multiple_active"
	IssueLikedFlag      = "liked_flag"
	IssueNitOverflow    = "nit_overflow"
)

type LineageIssue struct {
	ExerciseID   uuid.UUID
	SubmissionID uuid.UUID
	Problem      types.Problem
	Kind         string
	Detail       string
}

// LineageAuditor checks stored lineages against the engine's invariants
// without changing anything.
type LineageAuditor interface {
	AuditUser(ctx context.Context, userID uuid.UUID) ([]LineageIssue, error)
}

type LineageAuditorDeps struct {
	Log         *logger.Logger
	Exercises   repos.UserExerciseRepo
	Submissions repos.SubmissionRepo
	Likes       repos.LikeRepo
	Comments    repos.CommentRepo
}

type lineageAuditor struct {
	log  *logger.Logger
	deps LineageAuditorDeps
}

func NewLineageAuditor(deps LineageAuditorDeps) LineageAuditor {
	return &lineageAuditor{log: deps.Log.With("service", "LineageAuditor"), deps: deps}
}

func (a *lineageAuditor) AuditUser(ctx context.Context, userID uuid.UUID) ([]LineageIssue, error) {
	dbc := dbctx.Context{Ctx: ctx}
	lineages, err := a.deps.Exercises.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	var out []LineageIssue
	for _, ex := range lineages {
		subs, err := a.deps.Submissions.ListByExercise(dbc, ex.ID)
		if err != nil {
			return nil, err
		}
		issue := func(subID uuid.UUID, kind, format string, args ...interface{}) {
			out = append(out, LineageIssue{
				ExerciseID:   ex.ID,
				SubmissionID: subID,
				Problem:      ex.Problem(),
				Kind:         kind,
				Detail:       fmt.Sprintf(format, args...),
			})
		}

		if len(subs) != ex.IterationCount {
			issue(uuid.Nil, IssueCountMismatch, "iteration_count=%d, stored=%d", ex.IterationCount, len(subs))
		}
		active := 0
		for i, sub := range subs {
			if sub.Version != i+1 {
				issue(sub.ID, IssueVersionGap, "position %d holds version %d", i+1, sub.Version)
			}
			if sub.IsActive() {
				active++
			}
			if err := a.checkEngagement(dbc, sub, issue); err != nil {
				return nil, err
			}
		}
		if active > 1 {
			issue(uuid.Nil, IssueMultipleActive, "%d active submissions", active)
		}
	}
	if len(out) > 0 {
		a.log.Warn("lineage audit found issues", "user_id", userID, "issues", len(out))
	}
	return out, nil
}

func (a *lineageAuditor) checkEngagement(dbc dbctx.Context, sub *types.Submission, issue func(uuid.UUID, string, string, ...interface{})) error {
	if a.deps.Likes != nil {
		likes, err := a.deps.Likes.Count(dbc, sub.ID)
		if err != nil {
			return err
		}
		if sub.IsLiked != (likes > 0) {
			issue(sub.ID, IssueLikedFlag, "is_liked=%t with %d likers", sub.IsLiked, likes)
		}
	}
	if a.deps.Comments != nil && sub.NitCount > 0 {
		comments, err := a.deps.Comments.CountBySubmission(dbc, sub.ID)
		if err != nil {
			return err
		}
		if int64(sub.NitCount) > comments {
			issue(sub.ID, IssueNitOverflow, "nit_count=%d with %d comments", sub.NitCount, comments)
		}
	}
	return nil
}
