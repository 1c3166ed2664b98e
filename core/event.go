package core

import "time"

// EventType tags the variant of a streaming event.
type EventType string

const (
	// EventItemAdded signals a new domain item (e.g. inventory record).
	EventItemAdded EventType = "item-added"

	// EventItemRemoved signals removal of a domain item.
	EventItemRemoved EventType = "item-removed"

	// EventFieldChanged signals a single field update on a domain item.
	EventFieldChanged EventType = "field-changed"

	// EventAnalysisProgress reports incremental progress of a running task.
	EventAnalysisProgress EventType = "analysis-progress"

	// EventDomainAlert flags a domain-level condition needing attention
	// (low stock, skipped pipeline domain, supplier risk).
	EventDomainAlert EventType = "domain-alert"

	// EventMetricUpdate carries a numeric metric observation.
	EventMetricUpdate EventType = "metric-update"

	// EventTaskCompleted reports the terminal success of a dispatch.
	EventTaskCompleted EventType = "task-completed"

	// EventTaskFailed reports a terminal dispatch failure.
	EventTaskFailed EventType = "task-failed"
)

// StreamingEvent is the unit of broadcast to live observers. It is created by
// the dispatcher or pipeline, consumed by the broadcast bus and never mutated
// after creation.
//
// The JSON encoding is the interchange wire shape: event_type, subject_id,
// payload, timestamp (ISO-8601), originating_handler and a nullable
// user_scope.
type StreamingEvent struct {
	Type      EventType      `json:"event_type"`
	SubjectID string         `json:"subject_id"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
	Origin    string         `json:"originating_handler"`
	UserScope *string        `json:"user_scope"`
}

// NewStreamingEvent creates an event stamped with the current UTC time.
// SubjectID identifies the entity the event is about (task, item, metric);
// origin names the handler or component that emitted it.
func NewStreamingEvent(t EventType, subjectID, origin string, payload map[string]any) StreamingEvent {
	return StreamingEvent{
		Type:      t,
		SubjectID: subjectID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		Origin:    origin,
	}
}

// WithUserScope returns a copy of the event attributed to the given user.
func (e StreamingEvent) WithUserScope(userID string) StreamingEvent {
	e.UserScope = &userID
	return e
}
