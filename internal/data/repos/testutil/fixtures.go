package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/iterations-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, db *gorm.DB, username string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Username: username + "-" + uuid.NewString()[:8],
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedExercise(tb testing.TB, ctx context.Context, db *gorm.DB, userID uuid.UUID, trackID, slug, state string) *types.UserExercise {
	tb.Helper()
	ex := &types.UserExercise{
		UserID:  userID,
		TrackID: trackID,
		Slug:    slug,
		State:   state,
	}
	if err := db.WithContext(ctx).Create(ex).Error; err != nil {
		tb.Fatalf("seed user exercise: %v", err)
	}
	return ex
}

// SeedSubmission appends an iteration to ex with the next version number.
func SeedSubmission(tb testing.TB, ctx context.Context, db *gorm.DB, ex *types.UserExercise, state string, createdAt time.Time) *types.Submission {
	tb.Helper()
	ex.IterationCount++
	s := &types.Submission{
		UserID:         ex.UserID,
		UserExerciseID: ex.ID,
		TrackID:        ex.TrackID,
		Slug:           ex.Slug,
		State:          state,
		Version:        ex.IterationCount,
		Filename:       ex.Slug + ".rb",
		Solution:       map[string]interface{}{ex.Slug + ".rb": uuid.NewString()},
		CreatedAt:      createdAt.UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	if err := db.WithContext(ctx).Model(&types.UserExercise{}).
		Where("id = ?", ex.ID).
		Update("iteration_count", ex.IterationCount).Error; err != nil {
		tb.Fatalf("seed iteration count: %v", err)
	}
	return s
}

func SeedComment(tb testing.TB, ctx context.Context, db *gorm.DB, submissionID, userID uuid.UUID, body string, createdAt time.Time) *types.Comment {
	tb.Helper()
	c := &types.Comment{
		SubmissionID: submissionID,
		UserID:       userID,
		Body:         body,
		CreatedAt:    createdAt.UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed comment: %v", err)
	}
	return c
}
