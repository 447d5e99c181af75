package moderation

import (
	"errors"
	"fmt"
)

// ActuationCause classifies why a restriction attempt failed. Control flow
// treats all causes the same (single attempt, no retry); they exist for
// logging and metrics.
type ActuationCause string

const (
	CausePermissionDenied ActuationCause = "permission_denied"
	CauseNotFound         ActuationCause = "not_found"
	CauseTransient        ActuationCause = "transient"
)

type ActuationError struct {
	Cause ActuationCause
	Err   error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("actuation failed (%s): %v", e.Cause, e.Err)
}

func (e *ActuationError) Unwrap() error {
	return e.Err
}

func NewActuationError(cause ActuationCause, err error) *ActuationError {
	return &ActuationError{Cause: cause, Err: err}
}

// CauseOf extracts the actuation cause from an error chain, defaulting to
// transient for anything unclassified (timeouts, transport failures).
func CauseOf(err error) ActuationCause {
	var actErr *ActuationError
	if errors.As(err, &actErr) {
		return actErr.Cause
	}
	return CauseTransient
}
