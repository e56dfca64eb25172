package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted  = errors.New("service not started")
	ErrStopped     = errors.New("service stopped")
	ErrTooManyRuns = errors.New("too many runs in flight")
)
