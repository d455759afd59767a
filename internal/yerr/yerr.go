// Package yerr holds the error kinds used across yomimemo's engine and the
// Error type used to attach one or more of them as the cause of a more
// specific failure. Calling errors.Is() on an Error with any of its causes
// as the target returns true, the same contract the teacher's server/serr
// package offered for the game server.
package yerr

import "errors"

var (
	// ErrIngestMalformed means the tokenizer's output could not be
	// reconciled with the sentence text that was sent to it. The
	// offending record is skipped; ingestion of the remaining stream
	// continues.
	ErrIngestMalformed = errors.New("tokenizer output could not be reconciled with input sentence")

	// ErrStoreBusy means a write was rejected due to serialization
	// conflict in the relational backend. Callers should retry with
	// bounded backoff; internal/store/sqlite does this automatically.
	ErrStoreBusy = errors.New("store is busy, serialization conflict")

	// ErrInvariantViolation means internal propagation of invariant (5)
	// or (6) failed to leave the store in a consistent state. This is a
	// programming error, not a recoverable condition; the transaction
	// that produced it is aborted.
	ErrInvariantViolation = errors.New("an internal store invariant was violated")

	// ErrTransferFailed means the memory_strength transfer's
	// least-squares solve did not converge. build-database exits with an
	// error; the destination store is not deleted and keeps what was
	// ingested into it.
	ErrTransferFailed = errors.New("memory transfer did not converge")

	// ErrMissingDependency means a required external collaborator (e.g.
	// the dictionary database) was not available for a command that
	// needs it.
	ErrMissingDependency = errors.New("a required external dependency is missing")

	// ErrUnsupportedStore means the relational engine backing the store
	// failed the startup feature probe.
	ErrUnsupportedStore = errors.New("the relational engine does not support a required feature")

	// ErrNotFound means the requested entity does not exist in the store.
	ErrNotFound = errors.New("the requested entity was not found")

	// ErrConstraintViolation means a uniqueness or foreign-key constraint
	// was violated by an attempted write.
	ErrConstraintViolation = errors.New("a storage constraint was violated")

	// ErrDecodingFailure means a value read back from storage could not
	// be decoded into its in-memory representation.
	ErrDecodingFailure = errors.New("field could not be decoded from storage format")
)

// Error is a typed error that carries a message plus zero or more causes.
// It implements the multi-cause Unwrap() []error contract so that
// errors.Is can match any of its causes, and a legacy Is() so single-cause
// matching also works on toolchains predating that API.
//
// Error should not be constructed directly; use New.
type Error struct {
	msg   string
	cause []error
}

// New creates an Error with the given message and optional causes. causes
// may be empty; when non-empty, errors.Is(err, c) returns true for each c.
func New(msg string, causes ...error) Error {
	e := Error{msg: msg}
	if len(causes) > 0 {
		e.cause = make([]error, len(causes))
		copy(e.cause, causes)
	}
	return e
}

// Error returns the defined message, concatenated with the first cause's
// message if one is set and msg is non-empty; if msg is empty and a cause
// is set, the cause's message alone is returned.
func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}
	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}
	return e.msg
}

// Unwrap returns all causes of e, or nil if none were set.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is reports whether target is e itself (same message and causes) or one
// of e's causes.
func (e Error) Is(target error) bool {
	if errTarget, ok := target.(Error); ok {
		if e.msg != errTarget.msg || len(e.cause) != len(errTarget.cause) {
			return false
		}
		for i := range e.cause {
			if e.cause[i] != errTarget.cause[i] {
				return false
			}
		}
		return true
	}
	for _, c := range e.cause {
		if c == target {
			return true
		}
	}
	return false
}
