package core

import (
	"time"

	"github.com/google/uuid"
)

// TaskRequest is a single unit of work submitted to the orchestration core.
// It is immutable after creation; the dispatcher owns it through its
// lifecycle and archives it into the task history after a terminal state.
type TaskRequest struct {
	// ID uniquely identifies the request. Generated if the caller does not
	// supply one.
	ID string `json:"task_id"`

	// Input is the raw request text the intent classifier and routing rules
	// evaluate.
	Input string `json:"input"`

	// Context carries opaque caller-supplied payloads (inventory data,
	// demand history, supplier data). The core never interprets it; handlers
	// do.
	Context map[string]any `json:"context,omitempty"`

	// RequiredCapabilities pins additional capability tags the router must
	// honor beyond those contributed by matching rules.
	RequiredCapabilities []string `json:"required_capabilities,omitempty"`

	// Priority orders requests when callers queue them externally. Higher is
	// more urgent. The core itself dispatches immediately.
	Priority int `json:"priority,omitempty"`

	// UserScope optionally attributes the request to a user for event
	// scoping.
	UserScope string `json:"user_scope,omitempty"`

	// CreatedAt is the request creation timestamp (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// TaskRequestOptions configures optional TaskRequest fields.
type TaskRequestOptions struct {
	// ID overrides the generated task identifier.
	ID string

	// Context supplies opaque payloads for handlers.
	Context map[string]any

	// RequiredCapabilities pins capability tags for routing.
	RequiredCapabilities []string

	// Priority sets the caller-facing urgency.
	Priority int

	// UserScope attributes the request to a user.
	UserScope string
}

// NewTaskRequest builds an immutable request around the given input text.
func NewTaskRequest(input string, optFns ...func(o *TaskRequestOptions)) *TaskRequest {
	opts := TaskRequestOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ID == "" {
		opts.ID = NewID()
	}
	return &TaskRequest{
		ID:                   opts.ID,
		Input:                input,
		Context:              opts.Context,
		RequiredCapabilities: opts.RequiredCapabilities,
		Priority:             opts.Priority,
		UserScope:            opts.UserScope,
		CreatedAt:            time.Now().UTC(),
	}
}

// NewID generates a new unique identifier for tasks and events.
func NewID() string { return uuid.NewString() }

// TaskResult is the structured output of a single handler execution.
type TaskResult struct {
	// HandlerID identifies the handler that produced the result.
	HandlerID string `json:"handler_id"`

	// Action names the operation the handler performed (e.g.
	// "inventory_analysis").
	Action string `json:"action"`

	// Summary is a short human readable outcome description.
	Summary string `json:"summary,omitempty"`

	// Data carries the structured result payload keyed by output kind.
	Data map[string]any `json:"data,omitempty"`

	// Recommendations lists actionable follow-ups derived from the data.
	Recommendations []string `json:"recommendations,omitempty"`
}

// DispatchState is the terminal-state machine position of a dispatch.
type DispatchState string

const (
	// StateSucceeded marks a dispatch completed by some candidate handler.
	StateSucceeded DispatchState = "succeeded"

	// StateExhausted marks a dispatch in which every ranked candidate
	// failed.
	StateExhausted DispatchState = "exhausted"
)

// Attempt records one candidate handler try within a dispatch.
type Attempt struct {
	HandlerID   string        `json:"handler_id"`
	HandlerName string        `json:"handler_name"`
	Reason      string        `json:"reason"`
	Latency     time.Duration `json:"latency"`
}

// DispatchResult reports the terminal outcome of one dispatch call: the
// winning handler's result on success, or the full attempt trail on
// exhaustion. A request has exactly one terminal outcome even though it may
// pass through several candidates.
type DispatchResult struct {
	TaskID       string        `json:"task_id"`
	State        DispatchState `json:"state"`
	HandlerID    string        `json:"handler_id,omitempty"`
	HandlerName  string        `json:"handler_name,omitempty"`
	Result       *TaskResult   `json:"result,omitempty"`
	ResponseTime time.Duration `json:"response_time,omitempty"`
	Attempts     []Attempt     `json:"attempts,omitempty"`
}

// DomainSkip records a pipeline domain that produced no data because its
// dispatch was exhausted.
type DomainSkip struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}

// CompositeResult is the merged outcome of a collaboration pipeline run. It
// reports which domains produced data, which were skipped, and the
// recommendation list synthesized from the domains that did produce data.
type CompositeResult struct {
	TaskID string `json:"task_id"`

	// Domains maps each succeeded pipeline domain to its handler result.
	Domains map[string]*TaskResult `json:"domains"`

	// Skipped lists domains whose dispatch was exhausted, with reasons.
	Skipped []DomainSkip `json:"skipped,omitempty"`

	// Recommendations is synthesized only from domains that produced data.
	Recommendations []string `json:"recommendations,omitempty"`

	// Document is the merged JSON accumulator keyed by domain name.
	Document []byte `json:"-"`
}
