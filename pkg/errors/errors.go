package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable identifier carried in every error envelope.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata controls how a code is rendered over HTTP. When ExposeMessage is
// false clients only ever see PublicMessage.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	ExposeMessage  bool
}

func clientError(status int, public string, details bool) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: public, DetailsAllowed: details, ExposeMessage: true}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:    clientError(http.StatusBadRequest, "validation failed", true),
	CodeUnauthorized:  clientError(http.StatusUnauthorized, "authentication required", false),
	CodeForbidden:     clientError(http.StatusForbidden, "access denied", false),
	CodeNotFound:      clientError(http.StatusNotFound, "resource not found", false),
	CodeConflict:      clientError(http.StatusConflict, "conflict detected", true),
	CodeStateConflict: clientError(http.StatusUnprocessableEntity, "state transition disallowed", true),
	CodeIdempotency:   clientError(http.StatusConflict, "idempotency key reused", true),
	CodeRateLimit:     clientError(http.StatusTooManyRequests, "rate limit exceeded", false),
	CodeInternal:      {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency:    {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},
}

// MetadataFor falls back to the internal error metadata for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error. The zero cause is allowed; details are rendered only
// for codes whose metadata allows them.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return string(e.code) + ": " + e.message
	default:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error by code, so errors.Is(err, New(CodeNotFound, "")) works.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && e != nil && other != nil && e.code == other.code
}

// As returns the first coded error in the chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the outermost code in the chain, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	return As(err).Code()
}

// IsCode reports whether the chain carries a coded error with the given code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
