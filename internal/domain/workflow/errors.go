package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies workflow failures
type Code string

const (
	CodeNotFound              Code = "NOT_FOUND"
	CodeInvalidTransition     Code = "INVALID_TRANSITION"
	CodeDuplicateIndentNumber Code = "DUPLICATE_INDENT_NUMBER"
	CodeValidation            Code = "VALIDATION"
	CodeStorage               Code = "STORAGE"
)

// Error is the typed failure returned by every workflow operation.
// errors.Is matches on Code, so callers compare against the sentinels below.
type Error struct {
	Code    Code
	Op      Operation
	Status  string
	Message string
	Cause   error
}

var (
	ErrNotFound              = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidTransition     = &Error{Code: CodeInvalidTransition, Message: "invalid state transition"}
	ErrDuplicateIndentNumber = &Error{Code: CodeDuplicateIndentNumber, Message: "duplicate indent number"}
	ErrValidation            = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrStorage               = &Error{Code: CodeStorage, Message: "storage failure"}
)

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Op != "" {
		fmt.Fprintf(&b, " [%s]", e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code Code, op Operation, msg string) *Error {
	return &Error{Code: code, Op: op, Message: msg}
}

// NotFound reports a missing procurement or child record
func NotFound(format string, args ...interface{}) *Error {
	return newError(CodeNotFound, "", fmt.Sprintf(format, args...))
}

// InvalidTransition reports an operation that the current status does not allow
func InvalidTransition(op Operation, current Status) *Error {
	return &Error{
		Code:    CodeInvalidTransition,
		Op:      op,
		Status:  current.String(),
		Message: fmt.Sprintf("operation %s is not allowed in status %q", op, current),
	}
}

// Validation reports a malformed request
func Validation(op Operation, format string, args ...interface{}) *Error {
	return newError(CodeValidation, op, fmt.Sprintf(format, args...))
}

// DuplicateIndentNumber reports an indent number that is already taken
func DuplicateIndentNumber(indentNumber string, cause error) *Error {
	return &Error{
		Code:    CodeDuplicateIndentNumber,
		Op:      OpCreate,
		Message: fmt.Sprintf("indent number %q already exists", indentNumber),
		Cause:   cause,
	}
}

// CallerUnresolved reports that the identity provider could not name the acting user
func CallerUnresolved(op Operation, cause error) *Error {
	return &Error{Code: CodeValidation, Op: op, Message: "caller could not be resolved", Cause: cause}
}

// Storage wraps a database failure
func Storage(msg string, cause error) *Error {
	return &Error{Code: CodeStorage, Message: msg, Cause: cause}
}

// CodeOf extracts the Code of a workflow error, or "" for foreign errors
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
