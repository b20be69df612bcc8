package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTree is returned when a description violates the tree structure rules.
var ErrInvalidTree = errors.New("invalid document tree")

// ErrSessionDestroyed is returned by every operation on a destroyed session.
var ErrSessionDestroyed = errors.New("session destroyed")

// ErrDocumentNotFound is returned when a document ID cannot be found in a store.
var ErrDocumentNotFound = errors.New("document not found")

// ErrUnknownMount is returned when a reconciler is handed a mount handle it does not own.
var ErrUnknownMount = errors.New("unknown mount handle")

// InvalidTreeError explains why a description was rejected.
type InvalidTreeError struct {
	Path   string // Index path of the offending element ("" for the root)
	Kind   Kind
	Reason string
}

func (e *InvalidTreeError) Error() string {
	where := "root"
	if e.Path != "" {
		where = "element " + e.Path
	}
	return fmt.Sprintf("%s: %s (%s): %s", ErrInvalidTree, where, e.Kind, e.Reason)
}

func (e *InvalidTreeError) Unwrap() error { return ErrInvalidTree }

// StreamError wraps a failure of the byte stream feeding an output operation,
// including accumulation and decode failures.
type StreamError struct {
	Output OutputKind
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("render stream (%s): %v", e.Output, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// CallbackError wraps an error or panic raised by the caller's render callback.
type CallbackError struct {
	Output OutputKind
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("render callback (%s): %v", e.Output, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }
