// Package registry implements the capability registry: the authoritative map
// of handler registrations and the capability tags they expose. Registrations
// live for the process lifetime; handlers are deactivated, never removed.
package registry

import (
	"sync"

	"github.com/hupe1980/supplymesh/core"
	"github.com/hupe1980/supplymesh/logging"
)

// Options configures a Registry instance.
type Options struct {
	// Logger receives registration lifecycle messages. Defaults to NoOp.
	Logger logging.Logger
}

// Registry stores handler registrations keyed by handler ID and resolves
// capability tags back to the handlers exposing them. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*core.HandlerRegistration
	handlers map[string]core.Handler
	order    []string
	logger   logging.Logger
}

// New constructs an empty registry.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		entries:  make(map[string]*core.HandlerRegistration),
		handlers: make(map[string]core.Handler),
		logger:   opts.Logger,
	}
}

// Register adds a handler and its declared capabilities. It fails with a
// DuplicateHandlerError if the handler ID is already present.
func (r *Registry) Register(h core.Handler) (*core.HandlerRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := h.ID()
	if _, exists := r.entries[id]; exists {
		return nil, &core.DuplicateHandlerError{HandlerID: id}
	}

	reg := core.NewHandlerRegistration(id, h.Name(), h.Capabilities(), len(r.order))
	r.entries[id] = reg
	r.handlers[id] = h
	r.order = append(r.order, id)

	r.logger.Info("registered handler", "handler_id", id, "capabilities", len(h.Capabilities()))
	return reg, nil
}

// Get returns the registration for a handler ID.
func (r *Registry) Get(id string) (*core.HandlerRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[id]
	return reg, ok
}

// Handler returns the executable handler for a registration.
func (r *Registry) Handler(id string) (core.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[id]
	return h, ok
}

// FindByCapability returns every registration whose capability set contains
// the tag, regardless of status. Ordering is unspecified; callers must
// re-rank.
func (r *Registry) FindByCapability(tag string) []*core.HandlerRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*core.HandlerRegistration
	for _, reg := range r.entries {
		if reg.HasCapability(tag) {
			matches = append(matches, reg)
		}
	}
	return matches
}

// Deactivate sets a handler's status to inactive. It is idempotent and a
// no-op for unknown handler IDs.
func (r *Registry) Deactivate(id string) {
	r.mu.RLock()
	reg, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	reg.SetStatus(core.StatusInactive)
	r.logger.Info("deactivated handler", "handler_id", id)
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns point-in-time views of every registration in registration
// order, for status surfaces.
func (r *Registry) Snapshot() []core.HandlerSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]core.HandlerSnapshot, 0, len(r.order))
	for _, id := range r.order {
		snaps = append(snaps, r.entries[id].Snapshot())
	}
	return snaps
}
