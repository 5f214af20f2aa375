package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type ViewerRepo interface {
	Record(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error)
	Count(dbc dbctx.Context, submissionID uuid.UUID) (int64, error)
}

type viewerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewViewerRepo(db *gorm.DB, baseLog *logger.Logger) ViewerRepo {
	return &viewerRepo{db: db, log: baseLog.With("repo", "ViewerRepo")}
}

func (r *viewerRepo) Record(dbc dbctx.Context, submissionID, userID uuid.UUID) (bool, error) {
	if submissionID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	return insertMember(dbc.DB(r.db), &types.SubmissionViewer{
		SubmissionID: submissionID,
		UserID:       userID,
		CreatedAt:    nowUTC(),
	})
}

func (r *viewerRepo) Count(dbc dbctx.Context, submissionID uuid.UUID) (int64, error) {
	if submissionID == uuid.Nil {
		return 0, nil
	}
	return countMembers(dbc.DB(r.db), &types.SubmissionViewer{}, submissionID)
}
