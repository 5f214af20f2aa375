package learning

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type LifecycleEventRepo interface {
	// Record inserts the milestone once per user; repeats are no-ops.
	Record(dbc dbctx.Context, userID uuid.UUID, key string) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.LifecycleEvent, error)
}

type lifecycleEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLifecycleEventRepo(db *gorm.DB, baseLog *logger.Logger) LifecycleEventRepo {
	return &lifecycleEventRepo{db: db, log: baseLog.With("repo", "LifecycleEventRepo")}
}

func (r *lifecycleEventRepo) Record(dbc dbctx.Context, userID uuid.UUID, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if userID == uuid.Nil || key == "" {
		return false, nil
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
			DoNothing: true,
		}).
		Create(&types.LifecycleEvent{UserID: userID, Key: key, CreatedAt: nowUTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *lifecycleEventRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.LifecycleEvent, error) {
	out := []*types.LifecycleEvent{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
