package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type MuteRepo interface {
	Add(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error)
	Remove(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error)
	RemoveAll(dbc dbctx.Context, submissionID uuid.UUID) (int64, error)
	IsMutedBy(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error)
}

type muteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMuteRepo(db *gorm.DB, baseLog *logger.Logger) MuteRepo {
	return &muteRepo{db: db, log: baseLog.With("repo", "MuteRepo")}
}

func (r *muteRepo) Add(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error) {
	if submissionID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	return insertMember(dbc.DB(r.db), &types.MutedSubmission{
		SubmissionID: submissionID,
		UserID:       userID,
		CreatedAt:    nowUTC(),
	})
}

func (r *muteRepo) Remove(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error) {
	if submissionID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	return deleteMember(dbc.DB(r.db), &types.MutedSubmission{}, submissionID, userID)
}

func (r *muteRepo) RemoveAll(dbc dbctx.Context, submissionID uuid.UUID) (int64, error) {
	if submissionID == uuid.Nil {
		return 0, nil
	}
	return deleteAllMembers(dbc.DB(r.db), &types.MutedSubmission{}, submissionID)
}

func (r *muteRepo) IsMutedBy(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error) {
	if submissionID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	return hasMember(dbc.DB(r.db), &types.MutedSubmission{}, submissionID, userID)
}
