package learning

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/domain/user"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission is one iteration within a lineage.
type Submission struct {
	ID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key string    `gorm:"uniqueIndex;not null;column:key" json:"key"`

	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	UserExerciseID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_submission_lineage_version,priority:1" json:"user_exercise_id"`
	UserExercise   *UserExercise `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserExerciseID;references:ID" json:"-"`

	TrackID string `gorm:"not null;column:track_id;index:idx_submission_problem,priority:1" json:"track_id"`
	Slug    string `gorm:"not null;column:slug;index:idx_submission_problem,priority:2" json:"slug"`

	State    string     `gorm:"not null;column:state;index" json:"state"`
	Version  int        `gorm:"not null;column:version;uniqueIndex:idx_submission_lineage_version,priority:2" json:"version"`
	NitCount int        `gorm:"not null;column:nit_count;default:0" json:"nit_count"`
	IsLiked  bool       `gorm:"not null;column:is_liked;default:false" json:"is_liked"`
	DoneAt   *time.Time `gorm:"column:done_at" json:"done_at,omitempty"`

	// Solution maps the submitted file path to its content.
	Solution datatypes.JSONMap `gorm:"column:solution" json:"solution"`
	Filename string            `gorm:"column:filename" json:"filename"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Submission) TableName() string { return "submission" }

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Key == "" {
		s.Key = uuid.NewString()
	}
	if s.State == "" {
		s.State = StatePending
	}
	return nil
}

func (s *Submission) Problem() Problem { return Problem{TrackID: s.TrackID, Slug: s.Slug} }

func (s *Submission) Name() string { return s.Problem().Name() }

// Code returns the submitted content for Filename.
func (s *Submission) Code() string {
	if s == nil || s.Solution == nil {
		return ""
	}
	if v, ok := s.Solution[s.Filename].(string); ok {
		return v
	}
	return ""
}

func (s *Submission) IsDone() bool        { return s.State == StateDone }
func (s *Submission) IsPending() bool     { return s.State == StatePending }
func (s *Submission) IsHibernating() bool { return s.State == StateHibernating }
func (s *Submission) IsSuperseded() bool  { return s.State == StateSuperseded }
func (s *Submission) IsActive() bool      { return IsActiveState(s.State) }

// OlderThan reports whether the submission was created more than d before now.
func (s *Submission) OlderThan(d time.Duration, now time.Time) bool {
	return s.CreatedAt.UTC().Before(now.UTC().Add(-d))
}

// DiscussionInvolvesOwner is true while some comments have not been counted
// as nits, i.e. the owner still owes a response.
func (s *Submission) DiscussionInvolvesOwner(commentCount int64) bool {
	return int64(s.NitCount) < commentCount
}
