package learning

import "errors"

// Attempt rejections. Neither changes any state.
var (
	ErrUnknownProblem     = errors.New("unknown problem")
	ErrDuplicateIteration = errors.New("duplicate of previous iteration")
)

// Unsubmit preconditions, reported in this order.
var (
	ErrNothingToUnsubmit = errors.New("nothing to unsubmit")
	ErrHasNits           = errors.New("the submission has nitpicks, so can't be deleted")
	ErrAlreadyDone       = errors.New("the submission has been already completed, so can't be deleted")
	ErrTooOld            = errors.New("the submission is too old to be deleted")
)

// ErrVersionCollision signals a broken lineage; it is never retried.
var ErrVersionCollision = errors.New("iteration version collision")
