package rigmerge

import (
	"errors"
	"fmt"
)

// Sentinel errors for all failure conditions. Callers match them with
// errors.Is; wrapped variants carry the offending path or name.
var (
	// ErrNotFound reports a missing input file.
	ErrNotFound = errors.New("file not found")

	// ErrBadFormat reports a file that is not a readable HDF5 store.
	ErrBadFormat = errors.New("not a valid data store")

	// ErrMissingTable reports a session without an expected dataset.
	ErrMissingTable = errors.New("expected table missing")

	// ErrSignalNotFound reports a signal name absent from a descriptor
	// table.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrNoSessions reports a store with no session groups.
	ErrNoSessions = errors.New("no sessions in store")

	// ErrNoUsableMetadata reports a merge where neither input supplies
	// descriptors with a resolvable time signal.
	ErrNoUsableMetadata = errors.New("no input provides usable metadata")

	// ErrNoRows reports a merge whose inputs contribute no sample rows.
	ErrNoRows = errors.New("no sample rows to merge")

	// ErrWriteFailed wraps output write failures.
	ErrWriteFailed = errors.New("store write failed")
)

// IsFatalMerge reports whether err is one of the conditions that abort a
// merge before any output is written.
func IsFatalMerge(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBadFormat) ||
		errors.Is(err, ErrNoUsableMetadata) ||
		errors.Is(err, ErrNoRows)
}

// IsSchema reports whether err describes a recoverable schema problem, one
// that degrades to a diagnostic instead of aborting.
func IsSchema(err error) bool {
	return errors.Is(err, ErrMissingTable) || errors.Is(err, ErrSignalNotFound)
}

// wrapErr attaches context to a sentinel.
func wrapErr(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
