package domain

import (
	"errors"
)

// Error kinds. Every error that crosses a use-case boundary matches exactly
// one of these so the transport layer can pick a status code with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTooManyAttempts = errors.New("too many attempts, try again later")
)

var (
	ErrUserNotFound        = newError(ErrNotFound, "user not found")
	ErrEmailTaken          = newError(ErrConflict, "email already registered")
	ErrInvalidRole         = newError(ErrValidation, "role must be one of admin, ngo, volunteer")
	ErrRoleNotAllowed      = newError(ErrValidation, "role must be ngo or volunteer")
	ErrUnknownProfileField = newError(ErrValidation, "unknown profile field")
	ErrInvalidCredentials  = newError(ErrUnauthenticated, "invalid credentials")
	ErrResetTokenInvalid   = newError(ErrValidation, "invalid or expired token")
	ErrDocumentNotFound    = newError(ErrNotFound, "document not found")
	ErrDocumentsDisabled   = newError(ErrValidation, "document uploads are disabled")
	ErrSelfModification    = newError(ErrForbidden, "admins cannot delete or demote themselves")
)

// Error is a specific failure that belongs to one kind. Its message is safe
// to return to clients.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

// ValidationError reports a bad input field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
