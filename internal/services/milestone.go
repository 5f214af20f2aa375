package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/data/repos"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

// MilestoneRecorder records onboarding milestones. Recording the same key
// twice for a user is a no-op.
type MilestoneRecorder interface {
	RecordMilestone(ctx context.Context, userID uuid.UUID, key string) error
}

type dbMilestoneRecorder struct {
	log    *logger.Logger
	events repos.LifecycleEventRepo
}

func NewMilestoneRecorder(log *logger.Logger, events repos.LifecycleEventRepo) MilestoneRecorder {
	return &dbMilestoneRecorder{log: log.With("service", "MilestoneRecorder"), events: events}
}

func (r *dbMilestoneRecorder) RecordMilestone(ctx context.Context, userID uuid.UUID, key string) error {
	key = strings.TrimSpace(key)
	if userID == uuid.Nil || key == "" {
		return nil
	}
	created, err := r.events.Record(dbctx.Context{Ctx: ctx}, userID, key)
	if err != nil {
		return err
	}
	if created {
		r.log.Debug("milestone recorded", "user_id", userID, "milestone", key)
	}
	return nil
}
