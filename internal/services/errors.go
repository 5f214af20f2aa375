package services

import pkgerrors "github.com/yungbote/iterations-backend/internal/pkg/errors"

var (
	// ErrUnknownAPIKey is returned when no user owns the presented key.
	ErrUnknownAPIKey = pkgerrors.New(pkgerrors.ErrUnauthorized, "unknown api key")
	// ErrSubmissionNotFound is returned for an unknown submission key.
	ErrSubmissionNotFound = pkgerrors.New(pkgerrors.ErrNotFound, "submission not found")
	ErrUsernameTaken      = pkgerrors.New(pkgerrors.ErrConflict, "username is taken")
)
