// Package errorsx wraps github.com/pkg/errors with the handful of helpers used
// throughout the codebase.
package errorsx

import (
	"errors"
	"fmt"
	"log"

	perrors "github.com/pkg/errors"
)

// String is a constant error type, usable for sentinel values.
type String string

func (t String) Error() string {
	return string(t)
}

func Errorf(format string, args ...any) error {
	return perrors.Errorf(format, args...)
}

// Wrap annotates err with a message and a stack trace. returns nil if err is nil.
func Wrap(err error, msg string) error {
	return perrors.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message. returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	return perrors.Wrapf(err, format, args...)
}

// Compact joins the non-nil errors. returns nil when every error is nil.
func Compact(errs ...error) error {
	return errors.Join(errs...)
}

// Log an error if it is not nil, returns the error unchanged.
func Log(err error) error {
	if err == nil {
		return nil
	}

	if lerr := log.Output(2, fmt.Sprintf("%+v\n", err)); lerr != nil {
		log.Println("unable to log", err, lerr)
	}

	return err
}

// MaybeLog logs the error if it is not nil without returning it.
func MaybeLog(err error) {
	if err == nil {
		return
	}

	_ = log.Output(2, fmt.Sprintln(err))
}

type userfriendly struct {
	error
}

func (t userfriendly) UserFriendly() {}

func (t userfriendly) Unwrap() error {
	return t.error
}

// UserFriendly marks the error as safe to display directly to the user.
func UserFriendly(err error) error {
	if err == nil {
		return nil
	}

	return userfriendly{error: err}
}
