// Package errwrap contains some error helpers.
package errwrap

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Wrapf adds context onto an existing error chain. If err is nil, Wrapf
// returns nil, so it is safe to use on a possibly-nil result.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Append safely appends err onto reterr. If either is nil the other is
// returned unchanged, which makes Append usable as a `reterr += err`.
func Append(reterr, err error) error {
	if reterr == nil {
		return err // which might even be nil
	}
	if err == nil {
		return reterr
	}
	return multierror.Append(reterr, err)
}

// Errors flattens err into the list of errors it accumulates. A nil error
// yields an empty list and a plain error yields a list of one.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.WrappedErrors()
	}
	return []error{err}
}

// String returns a string representation of the error. In particular, if the
// error is nil, it returns an empty string instead of panicking.
func String(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
