package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;index:idx_comment_submission_created,priority:1" json:"submission_id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Body         string    `gorm:"type:text;not null;column:body" json:"body"`
	HTMLBody     string    `gorm:"type:text;column:html_body" json:"html_body"`
	CreatedAt    time.Time `gorm:"not null;index:idx_comment_submission_created,priority:2" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Comment) TableName() string { return "comment" }

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
