package repositories

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrStageConflict means the session was not at the expected stage when a
	// transition was written.
	ErrStageConflict = errors.New("session stage conflict")
	// ErrSessionCompleted is returned when completing an already completed session.
	ErrSessionCompleted = errors.New("session already completed")
)
