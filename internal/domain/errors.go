package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the client
type Kind string

const (
	KindValidation    Kind = "ValidationError"
	KindAuth          Kind = "AuthError"
	KindAuthorization Kind = "AuthorizationError"
	KindNotFound      Kind = "NotFoundError"
	KindRateLimit     Kind = "RateLimitError"
	KindUpstream      Kind = "UpstreamError"
	KindInternal      Kind = "InternalError"
)

// CodeStaleToken tells the client to drop any locally stored auth state
const CodeStaleToken = "stale_token"

// Error is the single error shape every handler responds with
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Code    string
	Details any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCode returns a copy of the error carrying a machine-readable code
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// WithDetails returns a copy of the error carrying extra details
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// ============================================================================
// Constructors
// ============================================================================

func NewValidationError(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message, Cause: cause}
}

func NewAuthError(message string, cause error) *Error {
	return &Error{Kind: KindAuth, Status: http.StatusUnauthorized, Message: message, Cause: cause}
}

func NewAuthorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Status: http.StatusForbidden, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: message}
}

func NewRateLimitError(message string) *Error {
	return &Error{Kind: KindRateLimit, Status: http.StatusTooManyRequests, Message: message}
}

// NewUpstreamError builds an upstream error; status is the relayed backend status
// when one is known, otherwise 502
func NewUpstreamError(status int, message string, cause error) *Error {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &Error{Kind: KindUpstream, Status: status, Message: message, Cause: cause}
}

func NewInternalError(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: message, Cause: cause}
}

// ============================================================================
// Common errors
// ============================================================================

var (
	ErrAuthenticationRequired = NewAuthError("Authentication required", nil)
	ErrTokenExpired           = NewAuthError("Token expired", nil)
	ErrSessionExpired         = NewAuthError("Session expired, please sign in again", nil)
	ErrCompanyNotFound        = NewNotFoundError("Company not found")
	ErrDraftNotFound          = NewNotFoundError("Draft not found")
)

// ============================================================================
// Error checking helpers
// ============================================================================

// AsError converts any error into an *Error, wrapping unknown errors as internal
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError("Internal server error", err)
}

func IsKind(err error, kind Kind) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind == kind
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return IsKind(err, KindNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return IsKind(err, KindValidation)
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	return IsKind(err, KindAuth)
}
