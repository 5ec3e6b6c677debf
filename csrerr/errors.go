// Package csrerr defines the error categories reported by the key loader,
// the request verifier, the request generator and the reconciler.
//
// Every error returned by those packages is marked with exactly one of the
// sentinels below, so callers can classify a failure with errors.Is while
// still getting the path and operation in the message.
package csrerr

import "github.com/cockroachdb/errors"

var (
	// ErrIO is returned when a file is missing, unreadable or can not be deleted
	ErrIO = errors.New("io error")
	// ErrUnsupportedAlgorithm is returned for an unrecognized authentication type
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrDecryption is returned for a bad passphrase or a corrupt key
	ErrDecryption = errors.New("decryption error")
	// ErrMalformedRequest is returned when an existing request can not be parsed
	ErrMalformedRequest = errors.New("malformed request")
	// ErrTemplate is returned for a missing or invalid subject template
	ErrTemplate = errors.New("template error")
	// ErrWrite is returned when the request could not be written atomically
	ErrWrite = errors.New("write error")
)

// Mark attaches the category to err and prefixes the message with the context.
// It returns nil if err is nil.
func Mark(err error, category error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.WithMessagef(err, format, args...), category)
}

// New returns a new error of the given category.
func New(category error, format string, args ...any) error {
	return errors.Mark(errors.Errorf(format, args...), category)
}

// Category returns the sentinel err is marked with, or nil.
func Category(err error) error {
	for _, c := range []error{
		ErrUnsupportedAlgorithm,
		ErrDecryption,
		ErrMalformedRequest,
		ErrTemplate,
		ErrWrite,
		ErrIO,
	} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
