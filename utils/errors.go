package utils

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Handlers translate these into HTTP responses;
// everything else is treated as an internal error.
var (
	// ErrDuplicateLead is the expected "already processed" outcome of the
	// dedup gate. Never retried, acknowledged as success to webhook senders.
	ErrDuplicateLead = errors.New("lead already exists for this email and source")

	// ErrVersionConflict means the optimistic-lock version check failed:
	// somebody else transitioned the lead first.
	ErrVersionConflict = errors.New("lead was modified by someone else")

	// ErrLeadNotFound means no lead matches the given reference.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidTransition means the requested status change is not allowed
	// by the lead state machine (e.g. out of a terminal state).
	ErrInvalidTransition = errors.New("status transition not allowed")

	// ErrNotOwner means the acting rep neither owns the lead nor is an admin.
	ErrNotOwner = errors.New("lead is claimed by another rep")

	// ErrRepNotFound means the chat user is not on the active sales roster.
	ErrRepNotFound = errors.New("sales rep not found")
)

// TransientError marks failures of external dependencies (timeouts,
// connection errors) as eligible for bounded retry with backoff.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError for operation op.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err (or anything it wraps) is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
