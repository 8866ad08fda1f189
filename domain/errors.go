package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalid           ErrorCode = "INVALID"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeUnavailable       ErrorCode = "UNAVAILABLE"
	ErrCodeInternal          ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error with the same code and message, so wrapped
// sentinels still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// With returns a copy of e that wraps err. The copy still matches e with errors.Is.
func (e *Error) With(err error) *Error {
	return WrapError(e.Code, e.Message, err)
}

// Common domain errors.
var (
	ErrUserNotFound         = NewError(ErrCodeNotFound, "user not found")
	ErrPasswordRequired     = NewError(ErrCodeInvalid, "password is required")
	ErrUsernameRequired     = NewError(ErrCodeInvalid, "username is required")
	ErrUsernameTaken        = NewError(ErrCodeConflict, "username already exists")
	ErrWrongPassword        = NewError(ErrCodeUnauthorized, "wrong password")
	ErrNoActiveSession      = NewError(ErrCodeUnauthorized, "no user is logged in")
	ErrInvalidTheme         = NewError(ErrCodeInvalid, "invalid theme")
	ErrTaskNotFound         = NewError(ErrCodeNotFound, "task not found")
	ErrInvalidTaskType      = NewError(ErrCodeInvalid, "invalid task type")
	ErrTaskOwnership        = NewError(ErrCodeForbidden, "task belongs to another user")
	ErrPointsNotFound       = NewError(ErrCodeNotFound, "points not found")
	ErrConversationNotFound = NewError(ErrCodeNotFound, "conversation not found")
	ErrItemNotFound         = NewError(ErrCodeNotFound, "store item not found")
	ErrInsufficientPoints   = NewError(ErrCodeInsufficientFunds, "insufficient points")
	ErrPersistFailed        = NewError(ErrCodeUnavailable, "failed to persist changes")
	ErrUnknownPersona       = NewError(ErrCodeInvalid, "unknown persona")
	ErrInvalidPayload       = NewError(ErrCodeInvalid, "invalid payload")
	ErrStorageUnavailable   = NewError(ErrCodeUnavailable, "storage unavailable")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
