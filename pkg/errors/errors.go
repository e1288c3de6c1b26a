package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable machine readable identifier returned in error envelopes.
type Code string

const (
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeDuplication Code = "DUPLICATION_ERROR"
	CodeNotFound    Code = "NOT_FOUND"
	CodeConflict    Code = "CONFLICT"
	CodeIdempotency Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal    Code = "INTERNAL_ERROR"
	CodeDependency  Code = "DEPENDENCY_ERROR"
)

// Metadata controls how a code is rendered over HTTP. When DetailsAllowed is
// false clients only ever see PublicMessage.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:  {http.StatusBadRequest, false, "validation failed", true},
	CodeDuplication: {http.StatusConflict, false, "record already exists", true},
	CodeNotFound:    {http.StatusNotFound, false, "resource not found", false},
	CodeConflict:    {http.StatusConflict, false, "conflict detected", true},
	CodeIdempotency: {http.StatusConflict, false, "idempotency key reused", true},
	CodeInternal:    {http.StatusInternalServerError, false, "internal server error", false},
	CodeDependency:  {http.StatusServiceUnavailable, true, "dependency unavailable", false},
}

// MetadataFor treats unknown codes as internal errors.
func MetadataFor(code Code) Metadata {
	meta, ok := metadataByCode[code]
	if !ok {
		return metadataByCode[CodeInternal]
	}
	return meta
}

// Error is the typed error every service returns across package boundaries.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap keeps err as the cause; a nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// Required is the validation failure for a missing mandatory field.
func Required(field string) *Error {
	return New(CodeValidation, field+" is required").WithDetails(map[string]any{"field": field})
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
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether any *Error in err's chain carries code.
func Is(err error, code Code) bool {
	for err != nil {
		typed := As(err)
		if typed == nil {
			return false
		}
		if typed.code == code {
			return true
		}
		err = typed.cause
	}
	return false
}

// HTTPStatus maps err to a response status; untyped errors are 500.
func HTTPStatus(err error) int {
	if typed := As(err); typed != nil {
		return MetadataFor(typed.code).HTTPStatus
	}
	return http.StatusInternalServerError
}
