package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every ledger error matches exactly one of these with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
)

var (
	ErrInvalidDueDay      = errors.New("invalid due day")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidRate        = errors.New("invalid rate")
	ErrInvalidStatus      = errors.New("invalid status transition")
	ErrObligationClosed   = errors.New("obligation is closed")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidKind        = errors.New("invalid kind")
	ErrInvalidPenalty     = errors.New("invalid penalty policy")
	ErrInvalidInstallment = errors.New("invalid installment count")
)

// ValidationError reports input rejected before any write took place.
type ValidationError struct {
	Field        string
	Reason       string
	ObligationID int64
	Err          error
}

func (e *ValidationError) Error() string {
	msg := e.Field + ": " + e.Reason
	if e.ObligationID != 0 {
		msg = fmt.Sprintf("obligation %d: %s", e.ObligationID, msg)
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ValidationError) Unwrap() error        { return e.Err }

// NotFoundError reports an unknown entity, obligation, payment or reminder id.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistenceError wraps a storage adapter failure, including aborted transactions.
type PersistenceError struct {
	Op           string
	ObligationID int64
	Err          error
}

func (e *PersistenceError) Error() string {
	if e.ObligationID != 0 {
		return fmt.Sprintf("%s (obligation %d): %v", e.Op, e.ObligationID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
func (e *PersistenceError) Unwrap() error        { return e.Err }

func invalid(field string, err error, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}
