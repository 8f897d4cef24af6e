package scheduler

import "errors"

var (
	// ErrInvalidJob indicates a job that cannot be persisted.
	ErrInvalidJob = errors.New("scheduler: invalid deferred job")
	// ErrJobNotFound indicates a status update for an unknown job id.
	ErrJobNotFound = errors.New("scheduler: deferred job not found")
	// ErrAlreadyStarted indicates Start was called on a running dispatcher.
	ErrAlreadyStarted = errors.New("scheduler: dispatcher already started")
)
