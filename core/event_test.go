package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStreamingEvent(t *testing.T) {
	ev := NewStreamingEvent(EventItemAdded, "item-42", "inventory", map[string]any{"name": "Widget"})

	assert.Equal(t, EventItemAdded, ev.Type)
	assert.Equal(t, "item-42", ev.SubjectID)
	assert.Equal(t, "inventory", ev.Origin)
	assert.Nil(t, ev.UserScope)
	assert.WithinDuration(t, time.Now().UTC(), ev.Timestamp, time.Second)
}

func TestStreamingEvent_WireShape(t *testing.T) {
	ev := NewStreamingEvent(EventMetricUpdate, "orders-per-min", "order-feed", map[string]any{"value": 12})

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "metric-update", decoded["event_type"])
	assert.Equal(t, "orders-per-min", decoded["subject_id"])
	assert.Equal(t, "order-feed", decoded["originating_handler"])
	assert.Contains(t, decoded, "payload")
	// user_scope must be present and null when unscoped.
	v, ok := decoded["user_scope"]
	assert.True(t, ok)
	assert.Nil(t, v)

	// Timestamp must round-trip as ISO-8601.
	_, err = time.Parse(time.RFC3339Nano, decoded["timestamp"].(string))
	assert.NoError(t, err)
}

func TestStreamingEvent_WithUserScope(t *testing.T) {
	ev := NewStreamingEvent(EventDomainAlert, "task-1", "sourcing", nil).WithUserScope("user-7")

	require.NotNil(t, ev.UserScope)
	assert.Equal(t, "user-7", *ev.UserScope)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"user_scope":"user-7"`)
}
