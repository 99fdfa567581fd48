package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the persistence layer.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindNotFound    ErrorKind = "not_found"
	KindStorage     ErrorKind = "storage"
	KindCorruption  ErrorKind = "corruption"
	KindRateLimited ErrorKind = "rate_limited"
)

// Sentinels for errors.Is matching against *Error.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrStorage     = errors.New("storage failure")
	ErrCorruption  = errors.New("corruption detected")
	ErrRateLimited = errors.New("rate limited")
)

// Error is a classified error carrying the failing operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error's kind. Rate limiting is a validation failure.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation || e.Kind == KindRateLimited
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrStorage:
		return e.Kind == KindStorage
	case ErrCorruption:
		return e.Kind == KindCorruption
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	}
	return false
}

// ValidationError reports rejected input.
func ValidationError(op string, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// NotFoundError reports an unknown id.
func NotFoundError(op, what, id string) error {
	return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("%s %q not found", what, id)}
}

// StorageError wraps a failure of the durable layer. Nil stays nil.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// CorruptionError reports structurally invalid persisted data.
func CorruptionError(op string, err error) error {
	return &Error{Kind: KindCorruption, Op: op, Err: err}
}

// RateLimitedError reports an actor exceeding its allowance.
func RateLimitedError(op string, format string, args ...any) error {
	return &Error{Kind: KindRateLimited, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of a classified error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}
