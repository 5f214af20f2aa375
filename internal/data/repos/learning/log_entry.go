package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type LogEntryRepo interface {
	Create(dbc dbctx.Context, entry *types.LogEntry) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LogEntry, error)
}

type logEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLogEntryRepo(db *gorm.DB, baseLog *logger.Logger) LogEntryRepo {
	return &logEntryRepo{db: db, log: baseLog.With("repo", "LogEntryRepo")}
}

func (r *logEntryRepo) Create(dbc dbctx.Context, entry *types.LogEntry) error {
	if entry == nil {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = nowUTC()
	}
	return dbc.DB(r.db).Create(entry).Error
}

func (r *logEntryRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LogEntry, error) {
	out := []*types.LogEntry{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
