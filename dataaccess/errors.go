package dataaccess

import (
	"errors"
	"fmt"
)

// Error taxonomy for everything the collaborator can fail with. Raw driver
// errors never cross this boundary; repositories map them here and callers
// branch with the Is* helpers.

// NotFoundError reports that the target entity or association no longer
// exists. Fetches of a missing owner return empty rows instead of this;
// it is reserved for point operations (unlink, delete, field update).
type NotFoundError struct {
	Target string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Target)
}

// ConflictError reports an attempt to create a duplicate active association
// or otherwise violate a uniqueness invariant.
type ConflictError struct {
	Target string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Target)
}

// ValidationError reports a rejected field value. Message is surfaced to the
// user verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TransportError wraps a network or driver failure. Recoverable by retry;
// cached values stay visible while an entry is in this state.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure in %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthorizationError reports a hard stop requiring re-authentication
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized: %s", e.Reason)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var t *NotFoundError
	return errors.As(err, &t)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	var t *ConflictError
	return errors.As(err, &t)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var t *ValidationError
	return errors.As(err, &t)
}

// IsTransport reports whether err is a TransportError
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// IsAuthorization reports whether err is an AuthorizationError
func IsAuthorization(err error) bool {
	var t *AuthorizationError
	return errors.As(err, &t)
}
