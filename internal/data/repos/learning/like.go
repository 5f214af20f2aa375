package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type LikeRepo interface {
	Add(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error)
	Remove(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error)
	Count(dbc dbctx.Context, submissionID uuid.UUID) (int64, error)
	Exists(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error)
	ListLikerIDs(dbc dbctx.Context, submissionID uuid.UUID) ([]uuid.UUID, error)
}

type likeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLikeRepo(db *gorm.DB, baseLog *logger.Logger) LikeRepo {
	return &likeRepo{db: db, log: baseLog.With("repo", "LikeRepo")}
}

func (r *likeRepo) Add(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error) {
	if submissionID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	return insertMember(dbc.DB(r.db), &types.SubmissionLike{
		SubmissionID: submissionID,
		UserID:       userID,
		CreatedAt:    nowUTC(),
	})
}

func (r *likeRepo) Remove(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error) {
	if submissionID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	return deleteMember(dbc.DB(r.db), &types.SubmissionLike{}, submissionID, userID)
}

func (r *likeRepo) Count(dbc dbctx.Context, submissionID uuid.UUID) (int64, error) {
	if submissionID == uuid.Nil {
		return 0, nil
	}
	return countMembers(dbc.DB(r.db), &types.SubmissionLike{}, submissionID)
}

func (r *likeRepo) Exists(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error) {
	if submissionID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	return hasMember(dbc.DB(r.db), &types.SubmissionLike{}, submissionID, userID)
}

func (r *likeRepo) ListLikerIDs(dbc dbctx.Context, submissionID uuid.UUID) ([]uuid.UUID, error) {
	if submissionID == uuid.Nil {
		return []uuid.UUID{}, nil
	}
	return listMemberIDs(dbc.DB(r.db), &types.SubmissionLike{}, submissionID)
}
