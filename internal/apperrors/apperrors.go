package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error so handlers can map it to an HTTP status
// without inspecting message strings.
type Code string

const (
	CodeValidation   Code = "validation"
	CodeNotFound     Code = "not_found"
	CodeForbidden    Code = "forbidden"
	CodeInvalidState Code = "invalid_state"
	CodeConflict     Code = "conflict"
)

// Error is a coded application error. Services return these for every
// expected failure; anything else is treated as internal.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Validation(format string, args ...any) *Error {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(CodeForbidden, fmt.Sprintf(format, args...))
}

// InvalidState messages should name the entity's current status so a
// rejected call is debuggable from the response alone.
func InvalidState(format string, args ...any) *Error {
	return New(CodeInvalidState, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(CodeConflict, fmt.Sprintf(format, args...))
}

// Is reports whether err is an application error with the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatus maps an error to its HTTP response status. Unknown errors
// map to 500.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation, CodeInvalidState:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
