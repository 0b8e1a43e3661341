package tasks

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition marks a transition the state machine never allows
// (e.g. released back to pending). It is a programming or integrity error and
// is never swallowed.
var ErrInvalidTransition = errors.New("invalid submission state transition")

// ErrTransitionConflict means a conditional update found the row already
// moved out of the expected state by a concurrent writer. Treated as a benign
// skip; never retried against the same row in the same pass.
var ErrTransitionConflict = errors.New("submission state changed concurrently")

// ErrRejectionReasonRequired guards the pending->rejected transition.
var ErrRejectionReasonRequired = errors.New("rejection requires a non-empty reason")

// ValidationError reports the first submission check that failed. Surfaced
// synchronously to the caller before any row is created.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// VerificationError wraps a failed or negative third-party username check.
// The submission is never created; the caller may retry the check.
type VerificationError struct {
	Platform string
	Username string
	Err      error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("username verification failed for %s on %s: %v", e.Username, e.Platform, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}
