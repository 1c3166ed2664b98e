package core

import "context"

// HandlerStatus describes the lifecycle state of a registered handler.
type HandlerStatus string

const (
	// StatusActive marks a handler as available for dispatch.
	StatusActive HandlerStatus = "active"

	// StatusBusy marks a handler as currently executing a task. Busy is
	// informational only: a busy handler remains eligible for selection by
	// the router (there is no handler-level mutual exclusion across
	// requests).
	StatusBusy HandlerStatus = "busy"

	// StatusInactive marks a handler as deactivated. Inactive handlers are
	// never routed to but their registration is retained for the process
	// lifetime.
	StatusInactive HandlerStatus = "inactive"
)

// Handler is the core interface every unit of domain logic must implement to
// participate in dispatch. Implementations register via the registry at
// startup and are invoked by the dispatcher with a routed TaskRequest.
//
// Implementations must:
//   - Respect context cancellation in Handle
//   - Return an error (never panic) to signal execution failure; a panic is
//     recovered by the dispatcher and converted into an execution error
//   - Treat the request context map as opaque caller-supplied data
type Handler interface {
	// ID returns the stable unique identifier of the handler.
	ID() string

	// Name returns the human readable display name.
	Name() string

	// Capabilities returns the capability set this handler declares.
	Capabilities() []Capability

	// Handle executes a task and returns its result or an error.
	Handle(ctx context.Context, req *TaskRequest) (*TaskResult, error)
}
