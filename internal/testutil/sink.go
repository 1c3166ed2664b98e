package testutil

import (
	"errors"
	"sync"

	"github.com/hupe1980/supplymesh/core"
)

// CollectorSink records every event it receives, in delivery order. Safe for
// concurrent use.
type CollectorSink struct {
	mu     sync.Mutex
	events []core.StreamingEvent
	fail   bool
}

// NewCollectorSink creates an empty collector.
func NewCollectorSink() *CollectorSink { return &CollectorSink{} }

// Send implements bus.Sink.
func (c *CollectorSink) Send(ev core.StreamingEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("sink transport error")
	}
	c.events = append(c.events, ev)
	return nil
}

// Publish implements dispatch.EventSink, discarding transport errors.
func (c *CollectorSink) Publish(ev core.StreamingEvent) { _ = c.Send(ev) }

// Events returns a copy of the recorded events.
func (c *CollectorSink) Events() []core.StreamingEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.StreamingEvent, len(c.events))
	copy(out, c.events)
	return out
}

// FailNext makes every subsequent Send return a transport error.
func (c *CollectorSink) FailNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = true
}
