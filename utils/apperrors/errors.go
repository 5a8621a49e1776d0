// Package apperrors provides the typed error taxonomy shared by the
// registration workflow and its HTTP surface.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide between fixing input,
// refreshing state or giving up.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindAuthorization  Kind = "authorization"
	KindIncomplete     Kind = "incomplete"
	KindNotFound       Kind = "not_found"
	KindInfrastructure Kind = "infrastructure"
)

// Sentinels returned by storage so services can translate them.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrDuplicateKey reports a unique index violation.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Error is a classified, user-facing failure.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail returns e with an extra detail entry.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or policy-violating input.
func Validation(code, format string, args ...interface{}) *Error {
	return newError(KindValidation, code, format, args...)
}

// Conflict reports that the stored state no longer matches what the caller expected.
func Conflict(code, format string, args ...interface{}) *Error {
	e := newError(KindConflict, code, format, args...)
	e.Err = ErrConflict
	return e
}

// Unauthorized reports an actor that may not perform the operation.
func Unauthorized(code, format string, args ...interface{}) *Error {
	return newError(KindAuthorization, code, format, args...)
}

// Incomplete reports a document completeness gate denial.
func Incomplete(code, format string, args ...interface{}) *Error {
	return newError(KindIncomplete, code, format, args...)
}

// NotFound reports a missing application, document or user.
func NotFound(code, format string, args ...interface{}) *Error {
	e := newError(KindNotFound, code, format, args...)
	e.Err = ErrNotFound
	return e
}

// Infrastructure wraps a storage or transport failure.
func Infrastructure(code string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Code: code, Message: fmt.Sprintf("%s: %v", code, err), Err: err}
}

// KindOf returns the kind of err, or KindInfrastructure for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInfrastructure
}

func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsConflict(err error) bool      { return KindOf(err) == KindConflict }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
func IsIncomplete(err error) bool    { return KindOf(err) == KindIncomplete }
func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
