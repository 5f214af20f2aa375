package repos

import (
	"github.com/yungbote/iterations-backend/internal/data/repos/learning"
	"github.com/yungbote/iterations-backend/internal/data/repos/user"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type UserExerciseRepo = learning.UserExerciseRepo
type SubmissionRepo = learning.SubmissionRepo
type CommentRepo = learning.CommentRepo
type LikeRepo = learning.LikeRepo
type MuteRepo = learning.MuteRepo
type ViewerRepo = learning.ViewerRepo
type LifecycleEventRepo = learning.LifecycleEventRepo
type LogEntryRepo = learning.LogEntryRepo
type HomeworkRepo = learning.HomeworkRepo
type SubmissionFeedRepo = learning.SubmissionFeedRepo

type FeedFilter = learning.FeedFilter
type ItemsPredicate = learning.ItemsPredicate

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewUserExerciseRepo(db *gorm.DB, baseLog *logger.Logger) UserExerciseRepo {
	return learning.NewUserExerciseRepo(db, baseLog)
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return learning.NewSubmissionRepo(db, baseLog)
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return learning.NewCommentRepo(db, baseLog)
}

func NewLikeRepo(db *gorm.DB, baseLog *logger.Logger) LikeRepo {
	return learning.NewLikeRepo(db, baseLog)
}

func NewMuteRepo(db *gorm.DB, baseLog *logger.Logger) MuteRepo {
	return learning.NewMuteRepo(db, baseLog)
}

func NewViewerRepo(db *gorm.DB, baseLog *logger.Logger) ViewerRepo {
	return learning.NewViewerRepo(db, baseLog)
}

func NewLifecycleEventRepo(db *gorm.DB, baseLog *logger.Logger) LifecycleEventRepo {
	return learning.NewLifecycleEventRepo(db, baseLog)
}

func NewLogEntryRepo(db *gorm.DB, baseLog *logger.Logger) LogEntryRepo {
	return learning.NewLogEntryRepo(db, baseLog)
}

func NewHomeworkRepo(db *gorm.DB, baseLog *logger.Logger) HomeworkRepo {
	return learning.NewHomeworkRepo(db, baseLog)
}

func NewSubmissionFeedRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionFeedRepo {
	return learning.NewSubmissionFeedRepo(db, baseLog)
}
