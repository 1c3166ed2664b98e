package core

import (
	"sync"
	"time"
)

// SuccessRateStep is the fixed increment/decrement applied to a handler's
// success rate per completed dispatch attempt. The rate is clamped to [0,1].
const SuccessRateStep = 0.1

// HandlerRegistration tracks a registered handler's identity, capability set,
// status and performance metrics. It is created at registration time and
// lives for the process lifetime; handlers are deactivated, never deleted.
//
// Status and metrics are updated only by the dispatcher. Two dispatches for
// the same handler may interleave, so MeanResponseTime and SuccessRate are
// last-write-wins rather than accumulated averages.
type HandlerRegistration struct {
	mu sync.RWMutex

	id           string
	name         string
	capabilities []Capability

	// seq is the registration order, used as the final routing tie-break.
	seq int

	status           HandlerStatus
	lastUsed         time.Time
	successRate      float64
	meanResponseTime time.Duration
}

// NewHandlerRegistration constructs an active registration with a perfect
// starting success rate, mirroring a freshly trusted handler.
func NewHandlerRegistration(id, name string, capabilities []Capability, seq int) *HandlerRegistration {
	return &HandlerRegistration{
		id:           id,
		name:         name,
		capabilities: capabilities,
		seq:          seq,
		status:       StatusActive,
		successRate:  1.0,
	}
}

// ID returns the handler identifier.
func (r *HandlerRegistration) ID() string { return r.id }

// Name returns the handler display name.
func (r *HandlerRegistration) Name() string { return r.name }

// Seq returns the registration order index.
func (r *HandlerRegistration) Seq() int { return r.seq }

// Capabilities returns a copy of the declared capability set.
func (r *HandlerRegistration) Capabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps := make([]Capability, len(r.capabilities))
	copy(caps, r.capabilities)
	return caps
}

// HasCapability reports whether the handler declares the given capability tag.
func (r *HandlerRegistration) HasCapability(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.capabilities {
		if c.Name == tag {
			return true
		}
	}
	return false
}

// Status returns the current lifecycle status.
func (r *HandlerRegistration) Status() HandlerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// SetStatus transitions the handler to the given status.
func (r *HandlerRegistration) SetStatus(s HandlerStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
}

// SuccessRate returns the current success rate in [0,1].
func (r *HandlerRegistration) SuccessRate() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.successRate
}

// MeanResponseTime returns the most recently observed execution latency.
func (r *HandlerRegistration) MeanResponseTime() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.meanResponseTime
}

// LastUsed returns the completion time of the most recent successful dispatch.
func (r *HandlerRegistration) LastUsed() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastUsed
}

// RecordSuccess restores active status, bumps the success rate (capped at
// 1.0), overwrites the response time with the observed latency and stamps
// last-used.
func (r *HandlerRegistration) RecordSuccess(latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusActive
	r.successRate = min(1.0, r.successRate+SuccessRateStep)
	r.meanResponseTime = latency
	r.lastUsed = time.Now().UTC()
}

// RecordFailure restores active status and lowers the success rate (floored
// at 0.0).
func (r *HandlerRegistration) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusActive
	r.successRate = max(0.0, r.successRate-SuccessRateStep)
}

// HandlerSnapshot is an immutable point-in-time view of a registration,
// suitable for status surfaces and JSON serialization.
type HandlerSnapshot struct {
	ID               string        `json:"handler_id"`
	Name             string        `json:"name"`
	Status           HandlerStatus `json:"status"`
	Capabilities     []string      `json:"capabilities"`
	SuccessRate      float64       `json:"success_rate"`
	MeanResponseTime time.Duration `json:"mean_response_time"`
	LastUsed         *time.Time    `json:"last_used,omitempty"`
}

// Snapshot captures the registration's current state.
func (r *HandlerRegistration) Snapshot() HandlerSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, len(r.capabilities))
	for i, c := range r.capabilities {
		tags[i] = c.Name
	}
	snap := HandlerSnapshot{
		ID:               r.id,
		Name:             r.name,
		Status:           r.status,
		Capabilities:     tags,
		SuccessRate:      r.successRate,
		MeanResponseTime: r.meanResponseTime,
	}
	if !r.lastUsed.IsZero() {
		t := r.lastUsed
		snap.LastUsed = &t
	}
	return snap
}
