// Package apperr defines the error kinds shared by the catalog services and
// their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind sentinels. Every *Error matches exactly one of them with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrDependency = errors.New("dependency failure")
)

type Error struct {
	kind error
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the kind sentinel of e.
func (e *Error) Is(target error) bool { return target == e.kind }

func Validation(format string, args ...any) error {
	return &Error{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id any) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf("%s not found (id=%v)", entity, id)}
}

func Forbidden(reason string) error {
	return &Error{kind: ErrForbidden, msg: reason}
}

func Conflict(format string, args ...any) error {
	return &Error{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// Dependency wraps a failure of the repository or a collaborator.
func Dependency(op string, cause error) error {
	return &Error{kind: ErrDependency, msg: op, err: cause}
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool  { return errors.Is(err, ErrForbidden) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrDependency):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show a client. Dependency failures
// hide their cause.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.kind == ErrDependency {
			return "service temporarily unavailable"
		}
		return e.Error()
	}
	return "internal server error"
}
