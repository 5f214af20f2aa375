package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

// ItemsPredicate selects rows for HomeworkRepo.ItemsWhere. Only the
// constructors below produce one, so callers never hand SQL to the query.
type ItemsPredicate struct {
	table string
	cond  string
	arg   interface{}
}

func (p ItemsPredicate) valid() bool { return p.table != "" && p.cond != "" }

// CompletedSubmissions matches submissions in state done.
func CompletedSubmissions() ItemsPredicate {
	return ItemsPredicate{table: "submission", cond: "state = ?", arg: learning.StateDone}
}

// NitpickerExercises matches lineages the learner unlocked for nitpicking.
func NitpickerExercises() ItemsPredicate {
	return ItemsPredicate{table: "user_exercise", cond: "is_nitpicker = ?", arg: true}
}

// ExerciseState matches lineages in the given exercise state.
func ExerciseState(state string) ItemsPredicate {
	if !learning.IsExerciseState(state) {
		return ItemsPredicate{}
	}
	return ItemsPredicate{table: "user_exercise", cond: "state = ?", arg: state}
}

// HomeworkRepo is the progress read-model. It aggregates directly in SQL
// and never loads submission history.
type HomeworkRepo interface {
	ExerciseStates(dbc dbctx.Context, userID uuid.UUID) (types.ProgressReport, error)
	ItemsWhere(dbc dbctx.Context, userID uuid.UUID, pred ItemsPredicate) (types.TrackItems, error)
}

type homeworkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHomeworkRepo(db *gorm.DB, baseLog *logger.Logger) HomeworkRepo {
	return &homeworkRepo{db: db, log: baseLog.With("repo", "HomeworkRepo")}
}

type exerciseStateRow struct {
	TrackID string `gorm:"column:track_id"`
	Slug    string `gorm:"column:slug"`
	State   string `gorm:"column:state"`
}

func (r *homeworkRepo) ExerciseStates(dbc dbctx.Context, userID uuid.UUID) (types.ProgressReport, error) {
	out := types.ProgressReport{}
	if userID == uuid.Nil {
		return out, nil
	}
	var rows []exerciseStateRow
	if err := dbc.DB(r.db).Raw(
		`SELECT track_id, slug, state FROM user_exercise WHERE user_id = ? ORDER BY track_id ASC, slug ASC`,
		userID,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TrackID] = append(out[row.TrackID], types.ExerciseStatus{Slug: row.Slug, State: row.State})
	}
	return out, nil
}

type trackItemRow struct {
	TrackID string `gorm:"column:track_id"`
	Slug    string `gorm:"column:slug"`
}

// ItemsWhere groups slugs by track in created_at order. A slug matched by
// several rows is listed once, at its earliest position.
func (r *homeworkRepo) ItemsWhere(dbc dbctx.Context, userID uuid.UUID, pred ItemsPredicate) (types.TrackItems, error) {
	out := types.TrackItems{}
	if userID == uuid.Nil || !pred.valid() {
		return out, nil
	}
	var rows []trackItemRow
	if err := dbc.DB(r.db).Raw(
		"SELECT track_id, slug FROM "+pred.table+" WHERE user_id = ? AND "+pred.cond+" ORDER BY created_at ASC",
		userID, pred.arg,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, row := range rows {
		k := row.TrackID + "/" + row.Slug
		if seen[k] {
			continue
		}
		seen[k] = true
		out[row.TrackID] = append(out[row.TrackID], row.Slug)
	}
	return out, nil
}
