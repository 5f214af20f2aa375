package learning

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

// UserExerciseRepo stores lineages. A lineage row is created on first
// submission and never deleted.
type UserExerciseRepo interface {
	GetOrCreate(dbc dbctx.Context, userID uuid.UUID, problem types.Problem) (*types.UserExercise, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserExercise, error)
	GetByKey(dbc dbctx.Context, key string) (*types.UserExercise, error)
	GetByProblem(dbc dbctx.Context, userID uuid.UUID, problem types.Problem) (*types.UserExercise, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.UserExercise, error)
	LockByProblem(dbc dbctx.Context, userID uuid.UUID, problem types.Problem) (*types.UserExercise, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserExercise, error)
	IsUnlocked(dbc dbctx.Context, userID uuid.UUID, problem types.Problem) (bool, error)
	UnlockedTracks(dbc dbctx.Context, userID uuid.UUID) ([]string, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type userExerciseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserExerciseRepo(db *gorm.DB, baseLog *logger.Logger) UserExerciseRepo {
	return &userExerciseRepo{db: db, log: baseLog.With("repo", "UserExerciseRepo")}
}

func (r *userExerciseRepo) first(q *gorm.DB) (*types.UserExercise, error) {
	var out types.UserExercise
	if err := q.Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *userExerciseRepo) GetOrCreate(dbc dbctx.Context, userID uuid.UUID, problem types.Problem) (*types.UserExercise, error) {
	if userID == uuid.Nil || !problem.Valid() {
		return nil, nil
	}
	row := &types.UserExercise{
		UserID:  userID,
		TrackID: problem.TrackID,
		Slug:    problem.Slug,
		State:   learning.StatePending,
	}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "track_id"}, {Name: "slug"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByProblem(dbc, userID, problem)
}

func (r *userExerciseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserExercise, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("id = ?", id))
}

func (r *userExerciseRepo) GetByKey(dbc dbctx.Context, key string) (*types.UserExercise, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where(map[string]interface{}{"key": key}))
}

func (r *userExerciseRepo) GetByProblem(dbc dbctx.Context, userID uuid.UUID, problem types.Problem) (*types.UserExercise, error) {
	if userID == uuid.Nil || !problem.Valid() {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).
		Where("user_id = ? AND track_id = ? AND slug = ?", userID, problem.TrackID, problem.Slug))
}

func (r *userExerciseRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.UserExercise, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *userExerciseRepo) LockByProblem(dbc dbctx.Context, userID uuid.UUID, problem types.Problem) (*types.UserExercise, error) {
	if userID == uuid.Nil || !problem.Valid() {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND track_id = ? AND slug = ?", userID, problem.TrackID, problem.Slug))
}

func (r *userExerciseRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserExercise, error) {
	out := []*types.UserExercise{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("track_id ASC").
		Order("slug ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userExerciseRepo) IsUnlocked(dbc dbctx.Context, userID uuid.UUID, problem types.Problem) (bool, error) {
	if userID == uuid.Nil || !problem.Valid() {
		return false, nil
	}
	var n int64
	if err := dbc.DB(r.db).Model(&types.UserExercise{}).
		Where("user_id = ? AND track_id = ? AND slug = ? AND is_nitpicker = ?", userID, problem.TrackID, problem.Slug, true).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *userExerciseRepo) UnlockedTracks(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	out := []string{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).Model(&types.UserExercise{}).
		Where("user_id = ? AND is_nitpicker = ?", userID, true).
		Distinct("track_id").
		Order("track_id ASC").
		Pluck("track_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userExerciseRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).Model(&types.UserExercise{}).Where("id = ?", id).Updates(updates).Error
}
