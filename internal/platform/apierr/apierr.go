package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	pkgerrors "github.com/yungbote/iterations-backend/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// sentinels maps engine rejections to their public status and code. Order
// matters only for errors that wrap more than one sentinel.
var sentinels = []struct {
	err    error
	status int
	code   string
}{
	{learning.ErrUnknownProblem, http.StatusBadRequest, "unknown_problem"},
	{learning.ErrDuplicateIteration, http.StatusBadRequest, "duplicate_iteration"},
	{learning.ErrNothingToUnsubmit, http.StatusNotFound, "nothing_to_unsubmit"},
	{learning.ErrHasNits, http.StatusForbidden, "has_nits"},
	{learning.ErrAlreadyDone, http.StatusForbidden, "already_done"},
	{learning.ErrTooOld, http.StatusForbidden, "too_old"},
	{pkgerrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{pkgerrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{pkgerrors.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
	{pkgerrors.ErrConflict, http.StatusConflict, "conflict"},
}

var codeStatus = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation:         http.StatusBadRequest,
	domainagg.CodeNotFound:           http.StatusNotFound,
	domainagg.CodeConflict:           http.StatusConflict,
	domainagg.CodePreconditionFailed: http.StatusPreconditionFailed,
	domainagg.CodeRetryable:          http.StatusServiceUnavailable,
	domainagg.CodeInvariantViolation: http.StatusInternalServerError,
	domainagg.CodeInternal:           http.StatusInternalServerError,
}

// FromDomain classifies err for an HTTP response. Unrecognized errors
// become a 500 with fallbackCode.
func FromDomain(err error, fallbackCode string) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return New(s.status, s.code, err)
		}
	}
	if code := domainagg.CodeOf(err); code != "" {
		if status, ok := codeStatus[code]; ok {
			return New(status, string(code), err)
		}
	}
	return New(http.StatusInternalServerError, fallbackCode, err)
}
