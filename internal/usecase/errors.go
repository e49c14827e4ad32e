package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrMatchStarted          = errors.New("match already started")
	ErrMatchNotFinished      = errors.New("match not finished")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
