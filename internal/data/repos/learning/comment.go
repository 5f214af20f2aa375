package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type CommentRepo interface {
	Create(dbc dbctx.Context, c *types.Comment) error
	ListBySubmission(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.Comment, error)
	CountBySubmission(dbc dbctx.Context, submissionID uuid.UUID) (int64, error)
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return &commentRepo{db: db, log: baseLog.With("repo", "CommentRepo")}
}

func (r *commentRepo) Create(dbc dbctx.Context, c *types.Comment) error {
	if c == nil {
		return nil
	}
	return dbc.DB(r.db).Create(c).Error
}

func (r *commentRepo) ListBySubmission(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.Comment, error) {
	out := []*types.Comment{}
	if submissionID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *commentRepo) CountBySubmission(dbc dbctx.Context, submissionID uuid.UUID) (int64, error) {
	var n int64
	if submissionID == uuid.Nil {
		return 0, nil
	}
	if err := dbc.DB(r.db).Model(&types.Comment{}).
		Where("submission_id = ?", submissionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
