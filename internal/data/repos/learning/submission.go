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

type SubmissionRepo interface {
	Create(dbc dbctx.Context, sub *types.Submission) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error)
	GetByKey(dbc dbctx.Context, key string) (*types.Submission, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error)

	ListByExercise(dbc dbctx.Context, exerciseID uuid.UUID) ([]*types.Submission, error)
	CountByExercise(dbc dbctx.Context, exerciseID uuid.UUID) (int64, error)
	GetByVersion(dbc dbctx.Context, exerciseID uuid.UUID, version int) (*types.Submission, error)
	LatestForExercise(dbc dbctx.Context, exerciseID uuid.UUID) (*types.Submission, error)
	ActiveForExercise(dbc dbctx.Context, exerciseID uuid.UUID) ([]*types.Submission, error)
	SupersedeActive(dbc dbctx.Context, exerciseID uuid.UUID) (int64, error)

	LatestAwaitingReviewForUser(dbc dbctx.Context, userID uuid.UUID) (*types.Submission, error)
	LatestPerExerciseForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Submission, error)
	ListForUserProblem(dbc dbctx.Context, userID uuid.UUID, problem types.Problem) ([]*types.Submission, error)
	CountForUserProblem(dbc dbctx.Context, userID uuid.UUID, problem types.Problem, states []string) (int64, error)
	CountDoneForUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteCascade(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{db: db, log: baseLog.With("repo", "SubmissionRepo")}
}

func (r *submissionRepo) Create(dbc dbctx.Context, sub *types.Submission) error {
	if sub == nil {
		return nil
	}
	return dbc.DB(r.db).Create(sub).Error
}

func (r *submissionRepo) first(q *gorm.DB) (*types.Submission, error) {
	var out types.Submission
	if err := q.Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *submissionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("id = ?", id))
}

func (r *submissionRepo) GetByKey(dbc dbctx.Context, key string) (*types.Submission, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where(map[string]interface{}{"key": key}))
}

func (r *submissionRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Submission, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *submissionRepo) ListByExercise(dbc dbctx.Context, exerciseID uuid.UUID) ([]*types.Submission, error) {
	out := []*types.Submission{}
	if exerciseID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_exercise_id = ?", exerciseID).
		Order("version ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *submissionRepo) CountByExercise(dbc dbctx.Context, exerciseID uuid.UUID) (int64, error) {
	var n int64
	if exerciseID == uuid.Nil {
		return 0, nil
	}
	if err := dbc.DB(r.db).Model(&types.Submission{}).
		Where("user_exercise_id = ?", exerciseID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *submissionRepo) GetByVersion(dbc dbctx.Context, exerciseID uuid.UUID, version int) (*types.Submission, error) {
	if exerciseID == uuid.Nil || version < 1 {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("user_exercise_id = ? AND version = ?", exerciseID, version))
}

func (r *submissionRepo) LatestForExercise(dbc dbctx.Context, exerciseID uuid.UUID) (*types.Submission, error) {
	if exerciseID == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).
		Where("user_exercise_id = ?", exerciseID).
		Order("version DESC"))
}

func (r *submissionRepo) ActiveForExercise(dbc dbctx.Context, exerciseID uuid.UUID) ([]*types.Submission, error) {
	out := []*types.Submission{}
	if exerciseID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_exercise_id = ? AND state IN ?", exerciseID, learning.ActiveStates).
		Order("version ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SupersedeActive moves every active submission of the lineage to
// superseded and clears done_at. Callers hold the lineage lock.
func (r *submissionRepo) SupersedeActive(dbc dbctx.Context, exerciseID uuid.UUID) (int64, error) {
	if exerciseID == uuid.Nil {
		return 0, nil
	}
	res := dbc.DB(r.db).Model(&types.Submission{}).
		Where("user_exercise_id = ? AND state IN ?", exerciseID, learning.ActiveStates).
		Updates(map[string]interface{}{
			"state":      learning.StateSuperseded,
			"done_at":    nil,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *submissionRepo) LatestAwaitingReviewForUser(dbc dbctx.Context, userID uuid.UUID) (*types.Submission, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).
		Where("user_id = ? AND state IN ?", userID, learning.AwaitingReviewStates).
		Order("created_at DESC").
		Order("version DESC"))
}

func (r *submissionRepo) LatestPerExerciseForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Submission, error) {
	out := []*types.Submission{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Where("version = (SELECT MAX(s2.version) FROM submission s2 WHERE s2.user_exercise_id = submission.user_exercise_id)").
		Order("track_id ASC").
		Order("slug ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListForUserProblem returns the learner's submissions on a problem, newest first.
func (r *submissionRepo) ListForUserProblem(dbc dbctx.Context, userID uuid.UUID, problem types.Problem) ([]*types.Submission, error) {
	out := []*types.Submission{}
	if userID == uuid.Nil || !problem.Valid() {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND track_id = ? AND slug = ?", userID, problem.TrackID, problem.Slug).
		Order("version DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *submissionRepo) CountForUserProblem(dbc dbctx.Context, userID uuid.UUID, problem types.Problem, states []string) (int64, error) {
	var n int64
	if userID == uuid.Nil || !problem.Valid() {
		return 0, nil
	}
	q := dbc.DB(r.db).Model(&types.Submission{}).
		Where("user_id = ? AND track_id = ? AND slug = ?", userID, problem.TrackID, problem.Slug)
	if len(states) > 0 {
		q = q.Where("state IN ?", states)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *submissionRepo) CountDoneForUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	if userID == uuid.Nil {
		return 0, nil
	}
	if err := dbc.DB(r.db).Model(&types.Submission{}).
		Where("user_id = ? AND state = ?", userID, learning.StateDone).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *submissionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).Model(&types.Submission{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteCascade removes the submission together with its comments, likes,
// mutes and viewers. It reports whether the submission row existed.
func (r *submissionRepo) DeleteCascade(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	db := dbc.DB(r.db)
	for _, model := range []interface{}{
		&types.Comment{},
		&types.SubmissionLike{},
		&types.MutedSubmission{},
		&types.SubmissionViewer{},
	} {
		if err := db.Where("submission_id = ?", id).Delete(model).Error; err != nil {
			return false, err
		}
	}
	res := db.Where("id = ?", id).Delete(&types.Submission{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
