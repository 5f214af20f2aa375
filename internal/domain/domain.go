package domain

import (
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/domain/user"
)

const (
	StatePending     = learning.StatePending
	StateNeedsInput  = learning.StateNeedsInput
	StateHibernating = learning.StateHibernating
	StateDone        = learning.StateDone
	StateSuperseded  = learning.StateSuperseded

	MilestoneJoined    = learning.MilestoneJoined
	MilestoneFetched   = learning.MilestoneFetched
	MilestoneSubmitted = learning.MilestoneSubmitted
)

type User = user.User

type Problem = learning.Problem
type Submission = learning.Submission
type UserExercise = learning.UserExercise
type Comment = learning.Comment
type SubmissionLike = learning.SubmissionLike
type MutedSubmission = learning.MutedSubmission
type SubmissionViewer = learning.SubmissionViewer
type LifecycleEvent = learning.LifecycleEvent
type LogEntry = learning.LogEntry

type ExerciseStatus = learning.ExerciseStatus
type ProgressReport = learning.ProgressReport
type TrackItems = learning.TrackItems
type Dashboard = learning.Dashboard

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&UserExercise{},
		&Submission{},
		&Comment{},
		&SubmissionLike{},
		&MutedSubmission{},
		&SubmissionViewer{},
		&LifecycleEvent{},
		&LogEntry{},
	}
}
