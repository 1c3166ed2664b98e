package testutil

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hupe1980/supplymesh/core"
)

// StubHandler is a configurable core.Handler for tests. Its behavior is
// driven by the HandleFunc field; by default it succeeds with an empty
// result. Calls counts invocations.
type StubHandler struct {
	HandlerID   string
	DisplayName string
	Caps        []core.Capability
	HandleFunc  func(ctx context.Context, req *core.TaskRequest) (*core.TaskResult, error)
	Delay       time.Duration

	calls atomic.Int64
}

var _ core.Handler = (*StubHandler)(nil)

// NewStubHandler creates a stub exposing the given capability tags.
func NewStubHandler(id string, tags ...string) *StubHandler {
	caps := make([]core.Capability, len(tags))
	for i, tag := range tags {
		caps[i] = core.Capability{Name: tag}
	}
	return &StubHandler{HandlerID: id, DisplayName: id, Caps: caps}
}

// ID implements core.Handler.
func (s *StubHandler) ID() string { return s.HandlerID }

// Name implements core.Handler.
func (s *StubHandler) Name() string { return s.DisplayName }

// Capabilities implements core.Handler.
func (s *StubHandler) Capabilities() []core.Capability { return s.Caps }

// Handle implements core.Handler.
func (s *StubHandler) Handle(ctx context.Context, req *core.TaskRequest) (*core.TaskResult, error) {
	s.calls.Add(1)
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if s.HandleFunc != nil {
		return s.HandleFunc(ctx, req)
	}
	return &core.TaskResult{HandlerID: s.HandlerID, Action: "stub", Data: map[string]any{}}, nil
}

// Calls returns how many times Handle was invoked.
func (s *StubHandler) Calls() int { return int(s.calls.Load()) }

// Failing configures the stub to always return the given error.
func (s *StubHandler) Failing(err error) *StubHandler {
	s.HandleFunc = func(context.Context, *core.TaskRequest) (*core.TaskResult, error) {
		return nil, err
	}
	return s
}

// Succeeding configures the stub to return a fixed result.
func (s *StubHandler) Succeeding(result *core.TaskResult) *StubHandler {
	s.HandleFunc = func(context.Context, *core.TaskRequest) (*core.TaskResult, error) {
		return result, nil
	}
	return s
}
