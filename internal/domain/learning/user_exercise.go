package learning

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/domain/user"
	"gorm.io/gorm"
)

// UserExercise is the lineage of one learner on one exercise and the
// progress record mirroring its latest iteration.
type UserExercise struct {
	ID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key string    `gorm:"uniqueIndex;not null;column:key" json:"key"`

	UserID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_exercise_lineage,priority:1" json:"user_id"`
	User   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

	TrackID string `gorm:"not null;column:track_id;uniqueIndex:idx_user_exercise_lineage,priority:2" json:"track_id"`
	Slug    string `gorm:"not null;column:slug;uniqueIndex:idx_user_exercise_lineage,priority:3" json:"slug"`

	State       string `gorm:"not null;column:state;index" json:"state"`
	IsNitpicker bool   `gorm:"not null;column:is_nitpicker;default:false" json:"is_nitpicker"`
	// IterationCount mirrors the number of submissions in the lineage.
	IterationCount int `gorm:"not null;column:iteration_count;default:0" json:"iteration_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserExercise) TableName() string { return "user_exercise" }

func (e *UserExercise) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Key == "" {
		e.Key = uuid.NewString()
	}
	if e.State == "" {
		e.State = StatePending
	}
	return nil
}

func (e *UserExercise) Problem() Problem { return Problem{TrackID: e.TrackID, Slug: e.Slug} }

func (e *UserExercise) IsClosed() bool      { return e.State == StateDone }
func (e *UserExercise) IsOpen() bool        { return e.State == StatePending }
func (e *UserExercise) IsHibernating() bool { return e.State == StateHibernating }
func (e *UserExercise) IsActive() bool      { return IsActiveState(e.State) }
