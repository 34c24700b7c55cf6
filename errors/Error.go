package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the error type returned by every store operation. It carries a code, a message and
// an optional cause, which is itself always an *Error.
type Error struct {
	code       ERR
	message    string
	wrappedErr error
}

type Interface interface {
	Error() string
	Is(target error) bool
	As(target interface{}) bool
	Unwrap() error

	Code() ERR
	Message() string
	WrappedErr() error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Error: %s (error code: %d), Message: %s", e.code, e.code, e.message)

	if e.wrappedErr != nil {
		fmt.Fprintf(&sb, ", Wrapped err: %v", e.wrappedErr)
	}

	return sb.String()
}

// Is reports whether e or any error in its cause chain has the code of target. Targets that are
// not *Error match on their text.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}

	targetError, ok := target.(*Error)
	if !ok {
		return strings.Contains(e.Error(), target.Error())
	}

	for cur := e; cur != nil; cur = cur.cause() {
		if cur.code == targetError.code {
			return true
		}
	}

	return false
}

// As assigns e to a **Error target, otherwise it searches the cause chain.
func (e *Error) As(target interface{}) bool {
	if e == nil {
		return false
	}

	if targetErr, ok := target.(**Error); ok {
		*targetErr = e
		return true
	}

	if cause := e.cause(); cause != nil {
		return errors.As(cause, target)
	}

	return false
}

func (e *Error) Unwrap() error {
	if e == nil || e.wrappedErr == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) Code() ERR {
	if e == nil {
		return ERR_UNKNOWN
	}

	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}

	return e.message
}

func (e *Error) WrappedErr() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) cause() *Error {
	cause, _ := e.wrappedErr.(*Error)

	return cause
}

// New creates an *Error with the given code. When the last of params is an error it becomes the
// cause and the remaining params format message. A cause that is not an *Error is flattened into
// a message-only *Error, so driver error types never travel past the package that raised them.
func New(code ERR, message string, params ...interface{}) *Error {
	params, cause := splitCause(params)

	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}

	if _, ok := ERR_name[int32(code)]; !ok {
		message = "invalid error code"
	}

	e := &Error{code: code, message: message}
	if cause != nil {
		e.wrappedErr = cause
	}

	return e
}

func splitCause(params []interface{}) ([]interface{}, *Error) {
	if len(params) == 0 {
		return params, nil
	}

	switch err := params[len(params)-1].(type) {
	case *Error:
		return params[:len(params)-1], err
	case error:
		return params[:len(params)-1], &Error{code: ERR_UNKNOWN, message: err.Error()}
	default:
		return params, nil
	}
}

// Join returns nil when every err is nil, otherwise one error whose text lists the non-nil ones.
func Join(errs ...error) error {
	messages := make([]string, 0, len(errs))

	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
		}
	}

	if len(messages) == 0 {
		return nil
	}

	return errors.New(strings.Join(messages, ", "))
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
