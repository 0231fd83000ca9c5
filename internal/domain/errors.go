package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrMalformedIssue    = errors.New("malformed issue")
	ErrUnknownUserFilter = errors.New("unknown user filter")
)
