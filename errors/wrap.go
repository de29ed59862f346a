package errors

import (
	goerrors "errors"
)

// The helpers below let callers import a single errors package.

func Unwrap(err error) error {
	return goerrors.Unwrap(err)
}

func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

func As(err error, target any) bool {
	return goerrors.As(err, target)
}

// Join returns an error wrapping errs; nil values are discarded.
func Join(errs ...error) error {
	return goerrors.Join(errs...)
}

// Sentinel creates a plain comparable error for package-level sentinels.
func Sentinel(text string) error {
	return goerrors.New(text)
}
