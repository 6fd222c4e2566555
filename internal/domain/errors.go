package domain

import (
	"errors"
	"fmt"
)

// ============================================================
// Caller errors: the request itself is wrong and retrying the
// same input will not help.
// ============================================================

// ErrValidation rejects a field of the input.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ErrNotFound means the resource does not exist or belongs to another
// user. Callers cannot tell the two apart.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ErrConflict reports a uniqueness clash, such as a second budget for
// the same category and month or a reused e-mail.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string { return e.Message }

// ErrUnauthorized covers bad credentials and bad or expired tokens.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// ============================================================
// Dependency errors: a collaborator failed. These may succeed
// on a later attempt.
// ============================================================

// ErrStore wraps a failed read or write against the data store. It is
// reported to clients as an internal error.
type ErrStore struct {
	Op  string
	Err error
}

func (e *ErrStore) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *ErrStore) Unwrap() error { return e.Err }

// ErrExternalService wraps a failed call to the AI provider, Telegram or
// the message broker.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error { return e.Err }

// ErrTimeout means a call ran past its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return e.Operation + ": deadline exceeded"
}

// ErrCircuitOpen means the breaker for Service is refusing calls.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return e.Service + " temporarily unavailable (circuit open)"
}

// IsCallerError reports whether err is one of the caller error types.
func IsCallerError(err error) bool {
	var (
		v  *ErrValidation
		nf *ErrNotFound
		c  *ErrConflict
		u  *ErrUnauthorized
	)
	return errors.As(err, &v) || errors.As(err, &nf) || errors.As(err, &c) || errors.As(err, &u)
}

// IsTransient reports whether err is a dependency failure worth retrying.
func IsTransient(err error) bool {
	var (
		ext *ErrExternalService
		st  *ErrStore
		to  *ErrTimeout
		co  *ErrCircuitOpen
	)
	return errors.As(err, &ext) || errors.As(err, &st) || errors.As(err, &to) || errors.As(err, &co)
}
