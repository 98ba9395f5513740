package apperrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown      Code = "UNKNOWN"
	CodeInvalid      Code = "INVALID"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeAccessDenied Code = "ACCESS_DENIED"
	CodePersistence  Code = "PERSISTENCE"
	CodeInternal     Code = "INTERNAL"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func Invalid(msg string) error {
	return New(CodeInvalid, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func Conflict(msg string) error {
	return New(CodeConflict, msg)
}

// AccessDenied covers failed membership checks and unreachable collaborators:
// both deny the operation before any side effect.
func AccessDenied(msg string) error {
	return New(CodeAccessDenied, msg)
}

// Persistence marks a failed durable write. The operation that produced it
// must not have broadcast anything.
func Persistence(msg string, cause error) error {
	return Wrap(CodePersistence, msg, cause)
}

func Internal(msg string, cause error) error {
	return Wrap(CodeInternal, msg, cause)
}

func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

func IsAccessDenied(err error) bool { return CodeOf(err) == CodeAccessDenied }

func IsPersistence(err error) bool { return CodeOf(err) == CodePersistence }

func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// HTTPStatus maps an error code to the status the REST/WS boundary surfaces.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalid:
		return 400
	case CodeAccessDenied:
		return 403
	case CodeNotFound:
		return 404
	case CodeConflict:
		return 409
	case CodePersistence, CodeInternal:
		return 500
	default:
		return 500
	}
}
