package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username string    `gorm:"uniqueIndex;not null;column:username" json:"username"`
	// Key is the API key the command line client authenticates with.
	Key       string `gorm:"uniqueIndex;not null;column:key" json:"-"`
	AvatarURL string `gorm:"column:avatar_url" json:"avatar_url"`
	// Mastery lists the track ids the user may nitpick without unlocking
	// individual exercises.
	Mastery     datatypes.JSONSlice[string] `gorm:"column:mastery" json:"mastery"`
	OnboardedAt *time.Time                  `gorm:"column:onboarded_at" json:"onboarded_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if strings.TrimSpace(u.Key) == "" {
		u.Key = uuid.NewString()
	}
	return nil
}

func (u *User) Onboarded() bool { return u != nil && u.OnboardedAt != nil }

// Locksmith reports whether the user was granted mastery of any track.
func (u *User) Locksmith() bool { return u != nil && len(u.Mastery) > 0 }

func (u *User) HasMastery(trackID string) bool {
	if u == nil {
		return false
	}
	for _, t := range u.Mastery {
		if strings.EqualFold(t, trackID) {
			return true
		}
	}
	return false
}

func (u *User) Owns(userID uuid.UUID) bool { return u != nil && u.ID == userID }
