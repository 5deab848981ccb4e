package core

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can decide how to present it and
// whether a retry can help, without matching on message strings.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation"
	KindStore           Kind = "store"
	KindUnknown         Kind = "unknown"
)

// Error is the kind-carrying error used across layer boundaries. Msg is
// user-presentable; Err holds the wrapped cause for logs and errors.Is/As.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the same operation can succeed.
// Infrastructure failures can clear up; rejections cannot.
func (e *Error) Retryable() bool {
	return e.Kind == KindStore || e.Kind == KindUnknown
}

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf classifies any error by the outermost Error in its chain.
// Errors without one, including nil, classify as unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
