package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single property validation failure.
type ValidationError struct {
	Path   string // Index path of the element ("" for the document)
	Key    string // Property name
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	where := "document"
	if e.Path != "" {
		where = "element " + e.Path
	}
	if e.Value == nil {
		return fmt.Sprintf("%s: prop %q: %s", where, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s: prop %q: %s (got %T)", where, e.Key, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err)
	}
	return b.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
