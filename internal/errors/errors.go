// Package errors is the single import for error handling: stdlib matching
// plus pkg/errors stack annotation at the boundaries where causes are wrapped.
package errors

import (
	"context"
	stderrors "errors"

	pkgerrors "github.com/pkg/errors"
)

func New(text string) error {
	return stderrors.New(text)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// IsAny reports whether err matches any of the targets.
func IsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if stderrors.Is(err, target) {
			return true
		}
	}

	return false
}

// IsCanceled reports whether err comes from a request whose context ended,
// either by the client going away or by a deadline.
func IsCanceled(err error) bool {
	return IsAny(err, context.Canceled, context.DeadlineExceeded)
}

// Wrap annotates err with a stack trace and message. A nil err stays nil.
func Wrap(err error, message string) error {
	return pkgerrors.Wrap(err, message)
}

func Wrapf(err error, format string, args ...any) error {
	return pkgerrors.Wrapf(err, format, args...)
}

// WithStack records the call site on errors returned by stores and SDKs.
func WithStack(err error) error {
	return pkgerrors.WithStack(err)
}

// Errorf is fmt.Errorf with a stack trace. It does not support %w.
func Errorf(format string, args ...any) error {
	return pkgerrors.Errorf(format, args...)
}
