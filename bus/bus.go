// Package bus implements the broadcast bus: a non-blocking fan-out of
// streaming events to live subscribers. Publishers never wait on slow
// consumers; a single consumer goroutine drains an internal queue so every
// subscriber observes events in publish order. A subscriber whose Send fails
// is removed permanently and never retried.
package bus

import (
	"sync"

	"github.com/hupe1980/supplymesh/core"
	"github.com/hupe1980/supplymesh/logging"
)

// Sink delivers one event to a subscriber. A non-nil error marks the
// subscriber dead; the bus removes it.
type Sink interface {
	Send(event core.StreamingEvent) error
}

// broadcastLogger is the optional richer logging surface for delivery
// statistics.
type broadcastLogger interface {
	LogBroadcast(eventType string, delivered, dropped int)
}

// Options configures a Bus.
type Options struct {
	// Logger receives delivery diagnostics. Defaults to NoOp.
	Logger logging.Logger
}

// Bus fans events out to registered sinks. Publish enqueues without blocking;
// delivery happens on a dedicated goroutine preserving publish order.
type Bus struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []core.StreamingEvent
	sinks  map[string]Sink
	closed bool
	done   chan struct{}
	logger logging.Logger
}

// New constructs a bus and starts its delivery goroutine.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	b := &Bus{
		sinks:  make(map[string]Sink),
		done:   make(chan struct{}),
		logger: opts.Logger,
	}
	b.cond = sync.NewCond(&b.mu)
	go b.run()
	return b
}

// Subscribe registers a sink and returns its subscription ID.
func (b *Bus) Subscribe(sink Sink) string {
	id := core.NewID()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks[id] = sink
	return id
}

// SubscribeChannel registers a buffered channel subscriber and returns the
// receive side plus the subscription ID. Events are dropped for this
// subscriber when its buffer is full; a full buffer does not remove it.
func (b *Bus) SubscribeChannel(buffer int) (<-chan core.StreamingEvent, string) {
	ch := make(chan core.StreamingEvent, buffer)
	id := b.Subscribe(&channelSink{ch: ch})
	return ch, id
}

// Unsubscribe removes a subscriber. Unknown IDs are a no-op.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sinks, id)
}

// SubscriberCount returns the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sinks)
}

// Publish enqueues an event for delivery and returns immediately. Events
// published after Close are discarded.
func (b *Bus) Publish(event core.StreamingEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.queue = append(b.queue, event)
	b.cond.Signal()
}

// Close stops the bus after draining the queued events. It blocks until the
// delivery goroutine exits. Close is idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	b.cond.Signal()
	b.mu.Unlock()
	<-b.done
}

func (b *Bus) run() {
	defer close(b.done)
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 && b.closed {
			b.mu.Unlock()
			return
		}
		event := b.queue[0]
		b.queue = b.queue[1:]

		// Snapshot the membership for this event so delivery happens
		// outside the lock.
		targets := make(map[string]Sink, len(b.sinks))
		for id, sink := range b.sinks {
			targets[id] = sink
		}
		b.mu.Unlock()

		delivered, dropped := 0, 0
		for id, sink := range targets {
			// A subscriber removed mid-delivery must not receive the event.
			b.mu.Lock()
			_, live := b.sinks[id]
			b.mu.Unlock()
			if !live {
				continue
			}
			if err := sink.Send(event); err != nil {
				b.Unsubscribe(id)
				dropped++
				b.logger.Warn("removed failing subscriber", "subscription_id", id, "error", err)
				continue
			}
			delivered++
		}
		if bl, ok := b.logger.(broadcastLogger); ok {
			bl.LogBroadcast(string(event.Type), delivered, dropped)
		} else {
			b.logger.Debug("event delivered", "event_type", string(event.Type), "delivered", delivered, "dropped", dropped)
		}
	}
}

// channelSink adapts a Go channel to the Sink interface. Overflow drops the
// event rather than failing the subscription.
type channelSink struct {
	ch chan core.StreamingEvent
}

func (s *channelSink) Send(event core.StreamingEvent) error {
	select {
	case s.ch <- event:
	default:
	}
	return nil
}
