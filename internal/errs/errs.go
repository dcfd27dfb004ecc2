// Package errs defines the engine's error-kind taxonomy: a Kind, an Error
// type carrying one, and Is for branching on the kind instead of matching
// message strings. The store and the pkg/ packages do not construct these
// errors; they return plain fmt.Errorf-wrapped errors.
package errs

import "fmt"

// Kind classifies an error for propagation-policy decisions.
type Kind int

const (
	// Unknown is the zero value; never constructed deliberately.
	Unknown Kind = iota
	// NotFound means the requested row does not exist. Often returned as
	// a nil pointer instead of an error; use this kind only when the
	// caller needs to distinguish "not found" from "found, empty".
	NotFound
	// Duplicate means (source_type, source_id) was already ingested.
	Duplicate
	// Conflict means a contradiction was detected; never a control-flow
	// failure, always surfaced as a BeliefContradiction record.
	Conflict
	// ExternalUnavailable means the embedding or LLM endpoint failed or
	// timed out; the core falls back to its no-external path.
	ExternalUnavailable
	// SchemaMismatch means a migration failed for a reason other than
	// "already exists". The store's migration runner does not record or
	// recover from such a failure: it returns it as a plain error and the
	// store does not open.
	SchemaMismatch
	// InvalidInput means the caller supplied inconsistent references.
	InvalidInput
	// Fatal means the storage file is unreadable or corrupt; halts startup.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Duplicate:
		return "duplicate"
	case Conflict:
		return "conflict"
	case ExternalUnavailable:
		return "external_unavailable"
	case SchemaMismatch:
		return "schema_mismatch"
	case InvalidInput:
		return "invalid_input"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a typed error carrying a Kind, the operation that failed, and an
// optional underlying cause.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "resolver.Resolve"
	Message string
	Err     error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error with no underlying cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap constructs an *Error carrying an underlying cause.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !asError(err, &e) {
		return false
	}
	return e.Kind == kind
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
