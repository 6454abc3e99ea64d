package service

import (
	stderrors "errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Kind classifies errors returned by the services
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindPermissionDenied
	KindUnauthenticated
)

// Error is a domain error carrying a caller-facing message
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation reports malformed or semantically invalid input
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing resource
func NotFound(resource string) error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// PermissionDenied reports a mutation attempted by someone other than the owner
func PermissionDenied(message string) error {
	return &Error{Kind: KindPermissionDenied, Message: message}
}

// ErrUnauthenticated is returned when an operation needs a user but got the anonymous requester
var ErrUnauthenticated error = &Error{Kind: KindUnauthenticated, Message: "authentication credentials were not provided"}

// KindOf returns the Kind of err, KindInternal for anything that is not a domain error
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// isUniqueViolation reports whether err comes from a unique constraint. gorm
// translates it for postgres and sqlite when TranslateError is on; the
// message checks cover handles opened without it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func isNotFound(err error) bool {
	return stderrors.Is(err, gorm.ErrRecordNotFound)
}
