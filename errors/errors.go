// Package errors provides a string based error type for declaring sentinel errors as constants,
// and re-exports the standard library helpers so callers only need a single errors import.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Separator is placed between an Error's message and the cause it wraps.
const Separator = " -- "

// Error provides a string based error type allowing the definition of const errors in packages.
type Error string

func (s Error) Error() string {
	return string(s)
}

// Is reports whether target is this Error or an Error wrapped by it.
func (s Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return s.Error() == target.Error() || strings.HasPrefix(target.Error(), s.Error()+Separator)
}

// Wrap attaches err as the cause of this Error.
func (s Error) Wrap(err error) error {
	return wrappedError{cause: err, msg: string(s)}
}

// Wrapf attaches a formatted detail message as the cause of this Error.
func (s Error) Wrapf(format string, args ...any) error {
	return wrappedError{cause: fmt.Errorf(format, args...), msg: string(s)}
}

type wrappedError struct {
	cause error
	msg   string
}

func (w wrappedError) Error() string {
	if w.cause != nil {
		return fmt.Sprintf("%s%s%v", w.msg, Separator, w.cause)
	}
	return w.msg
}

func (w wrappedError) Is(target error) bool {
	return Error(w.msg).Is(target)
}

func (w wrappedError) Unwrap() error {
	return w.cause
}

// Is checks if err is equivalent to target.
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns a new error with the specified message.
func New(message string) error {
	return errors.New(message)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// UnwrapErrors returns the errors joined into err, or err itself when it is not a joined error.
func UnwrapErrors(err error) []error {
	if err == nil {
		return nil
	}

	if je, ok := err.(interface{ Unwrap() []error }); ok {
		return je.Unwrap()
	}
	return []error{err}
}
