package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes surfaced to callers.
const (
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeAlreadyResponded       = "ALREADY_RESPONDED"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeIncompleteSubscription = "INCOMPLETE_SUBSCRIPTION"
	CodeInternalError          = "INTERNAL_ERROR"
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewInvalidTransition reports an action not legal in the current
// state. Reported to the actor as user-visible text, never escalated.
func NewInvalidTransition(current, action string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("action %q is not allowed while ticket is %s", action, current),
		http.StatusConflict,
		map[string]any{"status": current, "action": action})
}

// NewAlreadyResponded reports the client idempotency guard tripping;
// the response carries the current status so the actor learns what
// already happened instead of being silently dropped.
func NewAlreadyResponded(current string) error {
	return NewDomainError(CodeAlreadyResponded,
		fmt.Sprintf("this ticket already has a client response (status: %s)", current),
		http.StatusConflict,
		map[string]any{"status": current})
}

// NewIncompleteSubscription reports a Client actor missing the
// affiliation required to receive client-targeted fan-out.
func NewIncompleteSubscription(identity string) error {
	return NewDomainError(CodeIncompleteSubscription,
		"client subscription is missing a client affiliation",
		http.StatusUnprocessableEntity,
		map[string]any{"identity": identity})
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
