package learning

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionLike, MutedSubmission and SubmissionViewer are (submission, user)
// sets; the composite primary key keeps inserts idempotent.

type SubmissionLike struct {
	SubmissionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"submission_id"`
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (SubmissionLike) TableName() string { return "submission_like" }

type MutedSubmission struct {
	SubmissionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"submission_id"`
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (MutedSubmission) TableName() string { return "muted_submission" }

type SubmissionViewer struct {
	SubmissionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"submission_id"`
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (SubmissionViewer) TableName() string { return "submission_viewer" }
