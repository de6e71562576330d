// Package errors (imported as ierr) wraps github.com/cockroachdb/errors with
// the hint/code/details shape the rest of this repository builds on:
// ierr.NewError("...").WithHint("...").Mark(ierr.ErrValidation).
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrCode classifies an error for HTTP-status mapping and retry policy,
// per the error taxonomy in the specification.
type ErrCode string

const (
	ErrValidation        ErrCode = "validation"
	ErrNotFound          ErrCode = "not_found"
	ErrAlreadyExists     ErrCode = "already_exists"
	ErrInvalidOperation  ErrCode = "invalid_operation"
	ErrPermissionDenied  ErrCode = "permission_denied"
	ErrDatabase          ErrCode = "database"
	ErrSystem            ErrCode = "system"
	ErrExternalTransient ErrCode = "external_transient"
	ErrExternalPermanent ErrCode = "external_permanent"
)

// Error is the domain error type carried through the service layer.
type Error struct {
	cause      error
	msg        string
	hint       string
	code       ErrCode
	reportable map[string]any
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Hint() string          { return e.hint }
func (e *Error) Code() ErrCode         { return e.code }
func (e *Error) Details() map[string]any { return e.reportable }

// NewError starts a new domain error with the given message.
func NewError(msg string) *Error {
	return &Error{msg: msg, cause: errors.New(msg)}
}

// NewErrorf starts a new domain error with a formatted message.
func NewErrorf(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{msg: msg, cause: errors.New(msg)}
}

// WithError wraps an existing error as the cause of a new domain error.
func WithError(err error) *Error {
	if err == nil {
		return &Error{msg: "unknown error"}
	}
	if de, ok := AsDomainError(err); ok {
		return de
	}
	return &Error{msg: err.Error(), cause: errors.Wrap(err, "wrapped")}
}

func (e *Error) WithHint(hint string) *Error {
	e.hint = hint
	return e
}

func (e *Error) WithHintf(format string, args ...any) *Error {
	e.hint = fmt.Sprintf(format, args...)
	return e
}

func (e *Error) WithReportableDetails(details map[string]any) *Error {
	e.reportable = details
	return e
}

// Mark assigns the classifying code and returns the error so calls can be
// chained: return ierr.NewError(...).WithHint(...).Mark(ierr.ErrValidation)
func (e *Error) Mark(code ErrCode) *Error {
	e.code = code
	return e
}

// AsDomainError extracts the *Error out of an error chain, if present.
func AsDomainError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func codeIs(err error, code ErrCode) bool {
	de, ok := AsDomainError(err)
	return ok && de.code == code
}

func IsNotFound(err error) bool         { return codeIs(err, ErrNotFound) }
func IsAlreadyExists(err error) bool    { return codeIs(err, ErrAlreadyExists) }
func IsValidation(err error) bool       { return codeIs(err, ErrValidation) }
func IsInvalidOperation(err error) bool { return codeIs(err, ErrInvalidOperation) }
func IsPermissionDenied(err error) bool { return codeIs(err, ErrPermissionDenied) }
func IsExternalTransient(err error) bool { return codeIs(err, ErrExternalTransient) }

// ErrorDetail is the body of an ErrorResponse's "error" field.
type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the JSON envelope the HTTP edge returns for any
// non-2xx response, mirroring the teacher's rest/middleware ErrorHandler
// contract so handlers never hand-roll gin.H{"error": ...} bodies.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// HTTPStatusFromErr maps a domain ErrCode onto the HTTP status the thin
// API edge returns, per the taxonomy in spec.md §7. Errors that aren't
// *Error at all (programmer bugs, driver errors that escaped the service
// layer) fall back to 500, matching the taxonomy's "Internal... surfaced
// as an opaque 5xx".
func HTTPStatusFromErr(err error) int {
	de, ok := AsDomainError(err)
	if !ok {
		return 500
	}
	switch de.code {
	case ErrValidation:
		return 400
	case ErrNotFound:
		return 404
	case ErrAlreadyExists:
		return 409
	case ErrInvalidOperation:
		return 422
	case ErrPermissionDenied:
		return 403
	case ErrExternalTransient:
		return 503
	case ErrExternalPermanent:
		return 422
	case ErrDatabase, ErrSystem:
		return 500
	default:
		return 500
	}
}
