package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"alfredoptarigan/interview-agent/internal/models"
)

// Failure kinds reported by the round gate. Match them with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrEvaluator        = errors.New("evaluator error")
	ErrPersistence      = errors.New("persistence error")
	ErrStageMismatch    = errors.New("stage mismatch")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionCompleted = errors.New("session completed")
)

// GateError carries the session and round a failed gate call was about.
type GateError struct {
	Kind      error
	SessionID uuid.UUID
	Round     models.Round
	Err       error
}

func (e *GateError) Error() string {
	msg := e.Kind.Error()
	if e.SessionID != uuid.Nil {
		msg = fmt.Sprintf("%s: session %s", msg, e.SessionID)
	}
	if e.Round != 0 {
		msg = fmt.Sprintf("%s round %d", msg, int(e.Round))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GateError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newGateError(kind error, sessionID uuid.UUID, round models.Round, err error) *GateError {
	return &GateError{Kind: kind, SessionID: sessionID, Round: round, Err: err}
}

// ErrorKind returns the gate failure kind wrapped in err, or nil.
func ErrorKind(err error) error {
	var gateErr *GateError
	if errors.As(err, &gateErr) {
		return gateErr.Kind
	}
	return nil
}
