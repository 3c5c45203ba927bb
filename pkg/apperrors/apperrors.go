package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error into one of the stable categories the
// HTTP layer knows how to translate.
type Kind int

const (
	KindUnknown Kind = iota
	KindPermissionDenied
	KindNotFound
	KindInvalidRequest
)

// Error is a domain error with a stable kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is match two domain errors by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks in tests and handlers.
var (
	PermissionDenied = &Error{Kind: KindPermissionDenied, Message: "permission denied"}
	NotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	InvalidRequest   = &Error{Kind: KindInvalidRequest, Message: "invalid request"}
)

func PermissionDeniedf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Invalidf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown for storage/transport errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error to its HTTP status code. Unknown (storage-level)
// errors become 500 — the core never reinterprets them.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidRequest:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
