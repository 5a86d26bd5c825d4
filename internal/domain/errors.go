package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyProcessed = errors.New("week already processed")
	ErrNoRows           = errors.New("week has no uploaded rows")
	ErrFeedDisabled     = errors.New("statistics feed is not configured")
	ErrInvalidInput     = errors.New("invalid input")
)
