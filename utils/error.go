package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// RemoteErrorKind classifies failures raised by the remote gateway. Validation,
// not-found and conflict are permanent; transient failures are safe to retry.
type RemoteErrorKind string

const (
	RemoteValidation RemoteErrorKind = "validation"
	RemoteNotFound   RemoteErrorKind = "not_found"
	RemoteConflict   RemoteErrorKind = "conflict"
	RemoteTransient  RemoteErrorKind = "transient"
)

type RemoteError struct {
	Kind RemoteErrorKind
	Op   string
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func NewValidationError(op string, err error) error {
	return &RemoteError{Kind: RemoteValidation, Op: op, Err: err}
}

func NewNotFoundError(op string) error {
	return &RemoteError{Kind: RemoteNotFound, Op: op, Err: ErrorRecordNotFound}
}

func NewConflictError(op string, err error) error {
	return &RemoteError{Kind: RemoteConflict, Op: op, Err: err}
}

func NewTransientError(op string, err error) error {
	return &RemoteError{Kind: RemoteTransient, Op: op, Err: err}
}

func remoteKind(err error) (RemoteErrorKind, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

func IsValidation(err error) bool {
	k, ok := remoteKind(err)
	return ok && k == RemoteValidation
}

func IsNotFound(err error) bool {
	if errors.Is(err, ErrorRecordNotFound) {
		return true
	}
	k, ok := remoteKind(err)
	return ok && k == RemoteNotFound
}

func IsConflict(err error) bool {
	k, ok := remoteKind(err)
	return ok && k == RemoteConflict
}

func IsTransient(err error) bool {
	k, ok := remoteKind(err)
	return ok && k == RemoteTransient
}

// IsRecoverable reports whether the failure is handled by rollback-via-reload
// (refresh the cache from the gateway and inform the user) rather than being
// surfaced verbatim.
func IsRecoverable(err error) bool {
	return IsTransient(err) || IsNotFound(err) || IsConflict(err)
}
