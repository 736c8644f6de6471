package reembed

import "errors"

var (
	// ErrInvalidAttempt is returned when a backoff delay is requested for
	// an attempt number below 1.
	ErrInvalidAttempt = errors.New("attempt must be greater than 0")

	// ErrAlreadyRunning is returned when another run holds the progress
	// file lock.
	ErrAlreadyRunning = errors.New("another re-embedding run is already in progress")

	// ErrScan marks snapshot failures. A scan error abandons the current
	// pass; the next pass starts a fresh snapshot.
	ErrScan = errors.New("candidate scan failed")

	// ErrPersistence marks a bulk write that failed twice in a row.
	// Continuing would discard embedding outcomes, so the job stops.
	ErrPersistence = errors.New("persisting embedding outcomes failed")
)
