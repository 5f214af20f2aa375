package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Milestone keys recorded in the lifecycle log.
const (
	MilestoneJoined    = "joined"
	MilestoneFetched   = "fetched"
	MilestoneSubmitted = "submitted"
)

type LifecycleEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lifecycle_event_user_key,priority:1" json:"user_id"`
	Key       string    `gorm:"not null;column:key;uniqueIndex:idx_lifecycle_event_user_key,priority:2" json:"key"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (LifecycleEvent) TableName() string { return "lifecycle_event" }

func (e *LifecycleEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// LogEntry keeps the raw payload of a submit request for support.
type LogEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Key       string         `gorm:"column:key" json:"-"`
	Body      datatypes.JSON `gorm:"column:body" json:"body"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (LogEntry) TableName() string { return "log_entry" }

func (e *LogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
