package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/iterations-backend/internal/data/repos"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

type Repos struct {
	User           repos.UserRepo
	UserExercise   repos.UserExerciseRepo
	Submission     repos.SubmissionRepo
	Comment        repos.CommentRepo
	Like           repos.LikeRepo
	Mute           repos.MuteRepo
	Viewer         repos.ViewerRepo
	LifecycleEvent repos.LifecycleEventRepo
	LogEntry       repos.LogEntryRepo
	Homework       repos.HomeworkRepo
	Feed           repos.SubmissionFeedRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		UserExercise:   repos.NewUserExerciseRepo(db, log),
		Submission:     repos.NewSubmissionRepo(db, log),
		Comment:        repos.NewCommentRepo(db, log),
		Like:           repos.NewLikeRepo(db, log),
		Mute:           repos.NewMuteRepo(db, log),
		Viewer:         repos.NewViewerRepo(db, log),
		LifecycleEvent: repos.NewLifecycleEventRepo(db, log),
		LogEntry:       repos.NewLogEntryRepo(db, log),
		Homework:       repos.NewHomeworkRepo(db, log),
		Feed:           repos.NewSubmissionFeedRepo(db, log),
	}
}
