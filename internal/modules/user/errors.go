package user

import (
	"fmt"
	"net/http"
)

// DomainError is a structured, self-describing domain error used across the
// user module. It carries RFC7807-friendly metadata so a shared formatter can
// convert any domain error into a Problem response without enumerating types.
type DomainError struct {
	// Code is a stable, machine-readable business code (e.g., "ErrAccountSuspended").
	Code string

	// HTTPStatus is the HTTP status suggested for this error.
	HTTPStatus int

	// Title is a short human summary; if empty the formatter defaults to StatusText(HTTPStatus).
	Title string

	// Message is a human-readable message primarily for logs. When Detail is
	// empty, this is used as the public detail.
	Message string

	// Detail is a user-friendly, safe explanation for clients.
	Detail string

	// TypeURI is an RFC7807 type URI, e.g. "urn:problem:user/err-not-found".
	TypeURI string

	// Context is an optional extension payload for clients.
	Context any

	// cause is the underlying error that triggered this one, if any.
	cause error
}

// Error satisfies the standard Go error interface.
func (e *DomainError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap provides compatibility for errors.Is and errors.As, exposing the
// underlying error chain.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is enables errors.Is comparisons based on the stable Code rather than
// pointer identity, so copies created via WithCause match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the DomainError wrapping the provided cause.
func (e *DomainError) WithCause(err error) *DomainError {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

// WithDetail sets a public-friendly detail message for clients.
func (e *DomainError) WithDetail(detail string) *DomainError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// --- RFC7807 mapping accessors (satisfy httpx.DomainProblem) ---

func (e *DomainError) ProblemCode() string  { return e.Code }
func (e *DomainError) ProblemTitle() string { return e.Title }
func (e *DomainError) ProblemStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}
func (e *DomainError) ProblemDetail() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}
func (e *DomainError) ProblemTypeURI() string { return e.TypeURI }
func (e *DomainError) ProblemContext() any    { return e.Context }

// --- Pre-defined Domain Errors ---

var (
	// Resource & identity
	ErrNotFound = &DomainError{
		Code:       "ErrNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "user not found",
		TypeURI:    "urn:problem:user/err-not-found",
	}

	ErrEmailExists = &DomainError{
		Code:       "ErrEmailExists",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "a user with this email already exists",
		TypeURI:    "urn:problem:user/err-email-exists",
	}

	// Auth & credentials. Deliberately undifferentiated: the caller never
	// learns whether the email or the password was wrong.
	ErrInvalidCredentials = &DomainError{
		Code:       "ErrInvalidCredentials",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "invalid email or password",
		TypeURI:    "urn:problem:user/err-invalid-credentials",
	}

	ErrAccountSuspended = &DomainError{
		Code:       "ErrAccountSuspended",
		HTTPStatus: http.StatusForbidden,
		Title:      "Forbidden",
		Message:    "this account has been suspended",
		TypeURI:    "urn:problem:user/err-account-suspended",
	}

	ErrUnauthorized = &DomainError{
		Code:       "ErrUnauthorized",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "user is not authorized to perform this action",
		TypeURI:    "urn:problem:user/err-unauthorized",
	}

	// Verification & reset flows
	ErrInvalidOrExpiredCode = &DomainError{
		Code:       "ErrInvalidOrExpiredCode",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid or expired one-time code",
		TypeURI:    "urn:problem:user/err-invalid-or-expired-code",
	}

	ErrAlreadyVerified = &DomainError{
		Code:       "ErrAlreadyVerified",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "email address is already verified",
		TypeURI:    "urn:problem:user/err-already-verified",
	}

	ErrNoPendingReset = &DomainError{
		Code:       "ErrNoPendingReset",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "no confirmed password reset is pending",
		TypeURI:    "urn:problem:user/err-no-pending-reset",
	}

	ErrResendTooSoon = &DomainError{
		Code:       "ErrResendTooSoon",
		HTTPStatus: http.StatusTooManyRequests,
		Title:      "Too Many Requests",
		Message:    "please wait before requesting another code",
		TypeURI:    "urn:problem:user/err-resend-too-soon",
	}

	// Notification
	ErrDeliveryFailed = &DomainError{
		Code:       "ErrDeliveryFailed",
		HTTPStatus: http.StatusBadGateway,
		Title:      "Bad Gateway",
		Message:    "failed to deliver the notification email",
		TypeURI:    "urn:problem:user/err-delivery-failed",
	}

	// Federation
	ErrInvalidFederatedProfile = &DomainError{
		Code:       "ErrInvalidFederatedProfile",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "external profile is missing an id or email",
		TypeURI:    "urn:problem:user/err-invalid-federated-profile",
	}

	ErrUnsupportedOAuthProvider = &DomainError{
		Code:       "ErrUnsupportedOAuthProvider",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "unsupported oauth provider",
		TypeURI:    "urn:problem:user/err-unsupported-oauth-provider",
	}

	ErrOAuthStateInvalid = &DomainError{
		Code:       "ErrOAuthStateInvalid",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid oauth state",
		TypeURI:    "urn:problem:user/err-oauth-state-invalid",
	}

	ErrOAuthStateExpired = &DomainError{
		Code:       "ErrOAuthStateExpired",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "oauth state has expired",
		TypeURI:    "urn:problem:user/err-oauth-state-expired",
	}

	ErrOAuthExchangeFailed = &DomainError{
		Code:       "ErrOAuthExchangeFailed",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "oauth authentication failed",
		TypeURI:    "urn:problem:user/err-oauth-exchange-failed",
	}

	// Generic internal
	ErrInternal = &DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:user/err-internal",
	}
)
