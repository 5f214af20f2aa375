package learning

// Submission and exercise states.
const (
	StatePending     = "pending"
	StateNeedsInput  = "needs_input"
	StateHibernating = "hibernating"
	StateDone        = "done"
	StateSuperseded  = "superseded"
)

// ActiveStates are the non-terminal states; at most one submission per
// lineage holds one of them.
var ActiveStates = []string{StatePending, StateNeedsInput, StateHibernating}

// AwaitingReviewStates are the states the pending feeds and the unsubmit
// lookup consider.
var AwaitingReviewStates = []string{StateNeedsInput, StatePending}

func IsActiveState(state string) bool {
	for _, s := range ActiveStates {
		if s == state {
			return true
		}
	}
	return false
}

func IsExerciseState(state string) bool {
	switch state {
	case StatePending, StateNeedsInput, StateHibernating, StateDone:
		return true
	default:
		return false
	}
}
