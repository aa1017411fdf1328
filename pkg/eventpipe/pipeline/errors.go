package pipeline

import "errors"

var (
	// ErrNotRunning is returned by Submit when the pipeline has not been
	// started or has been stopped.
	ErrNotRunning = errors.New("pipeline is not running")

	// ErrNilEvent is returned by Submit for a nil event.
	ErrNilEvent = errors.New("event is nil")

	// ErrInvalidPriority is returned by Submit for a priority outside the
	// defined set.
	ErrInvalidPriority = errors.New("invalid priority")
)
