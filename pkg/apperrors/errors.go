package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes, grouped by how they are surfaced to callers.
const (
	// validation: user-correctable, message surfaced verbatim
	CodeMissingField = "VALIDATION_MISSING_FIELD"
	CodeInvalidEmail = "VALIDATION_INVALID_EMAIL"
	CodeInvalidInput = "VALIDATION_INVALID_INPUT"

	// authorization: generic denial, no detail
	CodeSecurityCheckFailed = "AUTH_SECURITY_CHECK_FAILED"
	CodeUnauthorized        = "AUTHZ_UNAUTHORIZED"
	CodeInvalidToken        = "AUTH_INVALID_TOKEN"

	// abuse: generic throttling message
	CodeSpamDetected      = "ABUSE_SPAM_DETECTED"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// integrity: surfaced as "invalid post"
	CodeNotFound            = "RESOURCE_NOT_FOUND"
	CodeNotAGuestSubmission = "RESOURCE_NOT_GUEST_SUBMISSION"

	// best-effort and unexpected
	CodeMailDeliveryFailed = "INTERNAL_MAIL_DELIVERY_FAILED"
	CodeUnexpected         = "INTERNAL_UNEXPECTED_ERROR"
)

// AppError is a structured application error. Two AppErrors match under
// errors.Is when their codes are equal, so the package-level values below work
// as sentinels even after WithDetail or Wrap.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Detail)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is reports code equality with another *AppError.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy carrying an internal detail string. Detail is logged, never rendered for
// authorization failures.
func (e *AppError) WithDetail(detail string) *AppError {
	c := *e
	c.Detail = detail
	return &c
}

// WithMessage returns a copy with a different user-facing message.
func (e *AppError) WithMessage(msg string) *AppError {
	c := *e
	c.Message = msg
	return &c
}

// Wrap returns a copy holding err as its cause.
func (e *AppError) Wrap(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

func newErr(code, msg string, status int) *AppError {
	return &AppError{Code: code, Message: msg, HTTPStatus: status}
}

var (
	ErrSecurityCheckFailed = newErr(CodeSecurityCheckFailed, "Security check failed.", http.StatusForbidden)
	ErrUnauthorized        = newErr(CodeUnauthorized, "You do not have permission to perform this action.", http.StatusForbidden)
	ErrInvalidToken        = newErr(CodeInvalidToken, "Invalid or expired token.", http.StatusForbidden)

	ErrSpamDetected      = newErr(CodeSpamDetected, "Your submission could not be accepted. Please try again later.", http.StatusTooManyRequests)
	ErrRateLimitExceeded = newErr(CodeRateLimitExceeded, "Submission limit exceeded. Please try again later.", http.StatusTooManyRequests)

	ErrMissingField = newErr(CodeMissingField, "A required field is missing.", http.StatusBadRequest)
	ErrInvalidEmail = newErr(CodeInvalidEmail, "Please enter a valid email address.", http.StatusBadRequest)
	ErrInvalidInput = newErr(CodeInvalidInput, "Invalid request.", http.StatusBadRequest)

	ErrNotFound            = newErr(CodeNotFound, "Invalid post.", http.StatusNotFound)
	ErrNotAGuestSubmission = newErr(CodeNotAGuestSubmission, "Invalid post.", http.StatusBadRequest)

	ErrMailDeliveryFailed = newErr(CodeMailDeliveryFailed, "Email could not be delivered.", http.StatusInternalServerError)
	ErrUnexpected         = newErr(CodeUnexpected, "An unexpected error occurred.", http.StatusInternalServerError)
)

// MissingField builds the validation error for an empty required field.
func MissingField(field, message string) *AppError {
	return ErrMissingField.WithMessage(message).WithDetail(field)
}

// Internal wraps an unexpected (store, transport) failure.
func Internal(err error) *AppError {
	return ErrUnexpected.Wrap(err)
}

// As extracts the *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Status returns the HTTP status for err, 500 for anything that is not an AppError.
func Status(err error) int {
	if ae, ok := As(err); ok && ae.HTTPStatus != 0 {
		return ae.HTTPStatus
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to show a caller. Unknown errors
// collapse to the generic internal message.
func PublicMessage(err error) string {
	if ae, ok := As(err); ok {
		return ae.Message
	}
	return ErrUnexpected.Message
}

// CodeOf returns the code for err, or CodeUnexpected.
func CodeOf(err error) string {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return CodeUnexpected
}
