package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Basic error check functions from standard library
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// appError is immutable; the With* methods return copies.
type appError struct {
	code    ErrorCode
	message string
	cause   error
	data    any
}

func (e *appError) Error() string {
	parts := []string{e.message}
	if e.message == "" {
		parts[0] = GetErrorMessage(e.code)
	}
	if e.data != nil {
		parts = append(parts, fmt.Sprint(e.data))
	}
	if e.cause != nil {
		parts = append(parts, e.cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *appError) Code() ErrorCode {
	return e.code
}

func (e *appError) WithMessage(msg string) Error {
	c := *e
	c.message = msg
	return &c
}

func (e *appError) WithData(data any) Error {
	c := *e
	c.data = data
	return &c
}

func (e *appError) GetData() any {
	return e.data
}

func (e *appError) Unwrap() error {
	return e.cause
}

// Is matches any Error carrying the same code.
func (e *appError) Is(target error) bool {
	t, ok := target.(Error)
	return ok && t.Code() == e.code
}

type factory struct{}

func (factory) New(code ErrorCode) Error {
	return &appError{code: code}
}

func (factory) Wrap(code ErrorCode, err error) Error {
	return &appError{code: code, cause: err}
}

func (factory) WithMessage(code ErrorCode, msg string) Error {
	return &appError{code: code, message: msg}
}

func (factory) WithData(code ErrorCode, data any) Error {
	return &appError{code: code, data: data}
}

// New creates a Factory instance for error creation
func New() Factory {
	return factory{}
}

// CodeOf returns the code of the first Error in err's chain, or an empty
// code when there is none.
func CodeOf(err error) ErrorCode {
	var appErr Error
	if As(err, &appErr) {
		return appErr.Code()
	}

	return ""
}

// HasCode reports whether any Error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && Is(err, &appError{code: code})
}
