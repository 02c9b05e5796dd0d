package models

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindDuplicateName     Kind = "duplicate_name"
	KindDuplicateBookmark Kind = "duplicate_bookmark"
	KindInvalidReference  Kind = "invalid_reference"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindCascadeFailure    Kind = "cascade_failure"
	KindUnauthorized      Kind = "unauthorized"
)

// Sentinels for errors.Is. Any *Error of the same Kind matches them.
var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrDuplicateName     = &Error{Kind: KindDuplicateName, Message: "a folder with this name already exists"}
	ErrDuplicateBookmark = &Error{Kind: KindDuplicateBookmark, Message: "you have already bookmarked this post in this folder"}
	ErrInvalidReference  = &Error{Kind: KindInvalidReference, Message: "referenced object does not exist"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "you do not have permission to perform this action"}
	ErrCascadeFailure    = &Error{Kind: KindCascadeFailure, Message: "folder could not be deleted, retry"}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized, Message: "authentication credentials were not provided or are invalid"}
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	cause   error
}

func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FieldError builds a validation error for a single request field.
func FieldError(field, msg string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: ErrValidation.Message,
		Fields:  map[string]string{field: msg},
	}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// WithCause returns a copy of e that wraps err.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.cause = err
	return &cp
}

// KindOf reports the taxonomy kind of err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
