package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateHandler is the sentinel matched by errors.Is for registration
// conflicts.
var ErrDuplicateHandler = errors.New("duplicate handler")

// DuplicateHandlerError reports a registration conflict: the handler ID is
// already present in the registry.
type DuplicateHandlerError struct {
	HandlerID string
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("handler %s is already registered", e.HandlerID)
}

// Unwrap links the error to the ErrDuplicateHandler sentinel.
func (e *DuplicateHandlerError) Unwrap() error { return ErrDuplicateHandler }

// RoutingFailureError reports that no routing rule matched the request, or
// that no active handler exposes the contributed capability tags. It is a
// terminal failure carrying zero attempts.
type RoutingFailureError struct {
	TaskID string
	Tags   []string
}

func (e *RoutingFailureError) Error() string {
	if len(e.Tags) == 0 {
		return fmt.Sprintf("task %s: no routing rule matched the request", e.TaskID)
	}
	return fmt.Sprintf("task %s: no active handler provides capabilities [%s]", e.TaskID, strings.Join(e.Tags, ", "))
}

// HandlerExecutionError wraps a single handler's failure during dispatch. It
// is recorded per candidate and absorbed into retry; it never propagates to
// the caller on its own.
type HandlerExecutionError struct {
	HandlerID string
	Err       error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("handler %s execution failed: %v", e.HandlerID, e.Err)
}

// Unwrap exposes the underlying handler error for errors.Is/As.
func (e *HandlerExecutionError) Unwrap() error { return e.Err }

// DispatchExhaustedError reports that every ranked candidate handler failed.
// It aggregates the per-candidate attempts so the caller always receives a
// structured failure naming the attempted handlers and reasons.
type DispatchExhaustedError struct {
	TaskID   string
	Attempts []Attempt
}

func (e *DispatchExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("task %s: dispatch exhausted", e.TaskID)
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %s", a.HandlerName, a.Reason)
	}
	return fmt.Sprintf("task %s: all %d candidate handlers failed (%s)", e.TaskID, len(e.Attempts), strings.Join(parts, "; "))
}

// DomainSkippedError marks a pipeline step whose dispatch was exhausted. The
// pipeline converts it into a DomainSkip marker and continues with the
// remaining steps.
type DomainSkippedError struct {
	Domain string
	Err    error
}

func (e *DomainSkippedError) Error() string {
	return fmt.Sprintf("pipeline domain %s skipped: %v", e.Domain, e.Err)
}

// Unwrap exposes the underlying dispatch error.
func (e *DomainSkippedError) Unwrap() error { return e.Err }
