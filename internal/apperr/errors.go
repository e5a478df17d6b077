// Package apperr implements identedit's closed error taxonomy: every
// failure the core surfaces carries one of a fixed set of type strings, a
// human message, and an optional recovery suggestion, matching the
// {error:{type,message,suggestion}} response shape external callers parse.
package apperr

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Code is one of the closed set of error types the core ever returns.
type Code string

const (
	InvalidRequest       Code = "invalid_request"
	IOError              Code = "io_error"
	NoProvider           Code = "no_provider"
	ParseFailure         Code = "parse_failure"
	InvalidSelector      Code = "invalid_selector"
	TargetMissing        Code = "target_missing"
	AmbiguousTarget      Code = "ambiguous_target"
	PreconditionFailed   Code = "precondition_failed"
	ResourceBusy         Code = "resource_busy"
	PathChanged          Code = "path_changed"
	RollbackFailed       Code = "rollback_failed"
	SerializationError   Code = "serialization_error"
	GrammarInstallFailed Code = "grammar_install_failed"
)

// Error is the uniform error value returned by every identedit subsystem.
type Error struct {
	Code       Code
	Message    string
	Suggestion string
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// New builds an Error with no suggestion and no wrapped cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around an existing cause, annotating it with a
// stack-bearing wrap via github.com/pkg/errors so deep call sites retain
// a trace back to the originating IO/parse failure.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Code: code, Message: msg, cause: errors.Wrap(cause, msg)}
}

// WithSuggestion attaches a recovery hint and returns the same error for
// chaining at the call site: return apperr.New(...).WithSuggestion(...).
func (e *Error) WithSuggestion(format string, args ...any) *Error {
	e.Suggestion = fmt.Sprintf(format, args...)
	return e
}

// Response is the wire shape every identedit entry point serializes a
// failure to.
type Response struct {
	Error Body `json:"error"`
}

// Body carries the type/message/suggestion triple.
type Body struct {
	Type       Code   `json:"type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ToResponse converts any error into the wire Response shape. Non-*Error
// values are classified as io_error with no suggestion, matching the
// original's behavior for uncategorized std-library failures.
func ToResponse(err error) Response {
	var ae *Error
	if errors.As(err, &ae) {
		return Response{Error: Body{Type: ae.Code, Message: ae.Error(), Suggestion: ae.Suggestion}}
	}
	return Response{Error: Body{Type: IOError, Message: err.Error()}}
}

// MarshalJSON renders the canonical wire failure payload directly from an
// Error, for call sites that already have a concrete *Error in hand.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(Response{Error: Body{Type: e.Code, Message: e.Error(), Suggestion: e.Suggestion}})
}

// Is supports code comparisons such as
// errors.Is(err, apperr.New(apperr.InvalidRequest, "")) by treating two
// *Error values as equal when their Code matches, regardless of message.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}
