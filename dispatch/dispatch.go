// Package dispatch implements the task dispatcher: it walks the router's
// ranked candidate list, executes handlers with panic isolation, maintains
// per-handler performance metrics and archives every terminal outcome into
// the task history. Candidate failures are absorbed into retry down the list;
// the caller always receives either a winning result or a structured
// exhaustion error.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/supplymesh/core"
	"github.com/hupe1980/supplymesh/logging"
	"github.com/hupe1980/supplymesh/registry"
	"github.com/hupe1980/supplymesh/rule"
)

// EventSink receives the streaming events the dispatcher emits over a task's
// lifecycle. Publish must not block; the broadcast bus satisfies this.
type EventSink interface {
	Publish(event core.StreamingEvent)
}

// dispatchLogger is the optional richer logging surface; when the configured
// logger provides it, per-attempt outcomes go through it.
type dispatchLogger interface {
	LogDispatch(handlerID string, dur time.Duration, success bool, err error)
}

// nopSink discards events when no sink is configured.
type nopSink struct{}

func (nopSink) Publish(core.StreamingEvent) {}

// Options configures a Dispatcher.
type Options struct {
	// Sink receives lifecycle events. Defaults to a discard sink.
	Sink EventSink

	// History archives terminal outcomes. Defaults to a fresh in-memory
	// history.
	History *History

	// Logger receives dispatch diagnostics. Defaults to NoOp.
	Logger logging.Logger
}

// Dispatcher executes routed tasks with retry down the ranked candidate
// list. No handler is tried twice within one dispatch.
type Dispatcher struct {
	registry *registry.Registry
	router   *rule.Router
	sink     EventSink
	history  *History
	logger   logging.Logger
}

// New constructs a dispatcher over the given registry and router.
func New(reg *registry.Registry, router *rule.Router, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Sink:   nopSink{},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.History == nil {
		opts.History = NewHistory()
	}
	return &Dispatcher{
		registry: reg,
		router:   router,
		sink:     opts.Sink,
		history:  opts.History,
		logger:   opts.Logger,
	}
}

// History returns the dispatcher's task archive.
func (d *Dispatcher) History() *History { return d.history }

// Dispatch routes the request, then tries each ranked candidate in order
// until one succeeds. Per candidate it marks the handler busy for the attempt,
// emits an analysis-progress event, and records success or failure on the
// handler's registration. A request reaches exactly one terminal state:
// succeeded, or exhausted with the full attempt trail.
func (d *Dispatcher) Dispatch(ctx context.Context, req *core.TaskRequest) (*core.DispatchResult, error) {
	candidates := d.router.Route(req)
	if len(candidates) == 0 {
		err := &core.RoutingFailureError{TaskID: req.ID, Tags: d.router.ContributedTags(req)}
		d.publish(req, core.NewStreamingEvent(core.EventTaskFailed, req.ID, "dispatcher", map[string]any{
			"reason": err.Error(),
		}))
		return nil, err
	}

	var attempts []core.Attempt
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		handler, ok := d.registry.Handler(candidate.ID())
		if !ok {
			// Registration without an executable handler; skip it.
			attempts = append(attempts, core.Attempt{
				HandlerID:   candidate.ID(),
				HandlerName: candidate.Name(),
				Reason:      "handler not resolvable",
			})
			continue
		}

		candidate.SetStatus(core.StatusBusy)
		d.publish(req, core.NewStreamingEvent(core.EventAnalysisProgress, req.ID, candidate.ID(), map[string]any{
			"stage":      "dispatching",
			"attempt":    i + 1,
			"candidates": len(candidates),
		}))

		start := time.Now()
		result, err := d.invoke(ctx, handler, req)
		latency := time.Since(start)

		if dl, ok := d.logger.(dispatchLogger); ok {
			dl.LogDispatch(candidate.ID(), latency, err == nil, err)
		}

		if err != nil {
			candidate.RecordFailure()
			attempts = append(attempts, core.Attempt{
				HandlerID:   candidate.ID(),
				HandlerName: candidate.Name(),
				Reason:      err.Error(),
				Latency:     latency,
			})
			d.logger.Warn("handler attempt failed", "task_id", req.ID, "handler_id", candidate.ID(), "error", err)
			continue
		}

		candidate.RecordSuccess(latency)
		outcome := &core.DispatchResult{
			TaskID:       req.ID,
			State:        core.StateSucceeded,
			HandlerID:    candidate.ID(),
			HandlerName:  candidate.Name(),
			Result:       result,
			ResponseTime: latency,
			Attempts:     attempts,
		}
		d.history.Append(req, outcome)
		d.publish(req, core.NewStreamingEvent(core.EventTaskCompleted, req.ID, candidate.ID(), map[string]any{
			"action":           result.Action,
			"response_time_ms": latency.Milliseconds(),
			"attempts":         len(attempts) + 1,
		}))
		d.logger.Info("task dispatched", "task_id", req.ID, "handler_id", candidate.ID(), "response_time", latency)
		return outcome, nil
	}

	exhausted := &core.DispatchExhaustedError{TaskID: req.ID, Attempts: attempts}
	outcome := &core.DispatchResult{
		TaskID:   req.ID,
		State:    core.StateExhausted,
		Attempts: attempts,
	}
	d.history.Append(req, outcome)
	d.publish(req, core.NewStreamingEvent(core.EventTaskFailed, req.ID, "dispatcher", map[string]any{
		"reason":   exhausted.Error(),
		"attempts": len(attempts),
	}))
	d.logger.Error("dispatch exhausted", "task_id", req.ID, "attempts", len(attempts))
	return outcome, exhausted
}

// invoke runs a single handler with panic isolation. A panicking handler is
// reported as an execution error, never propagated.
func (d *Dispatcher) invoke(ctx context.Context, handler core.Handler, req *core.TaskRequest) (result *core.TaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &core.HandlerExecutionError{HandlerID: handler.ID(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	result, err = handler.Handle(ctx, req)
	if err != nil {
		return nil, &core.HandlerExecutionError{HandlerID: handler.ID(), Err: err}
	}
	if result == nil {
		return nil, &core.HandlerExecutionError{HandlerID: handler.ID(), Err: errors.New("handler returned no result")}
	}
	return result, nil
}

func (d *Dispatcher) publish(req *core.TaskRequest, event core.StreamingEvent) {
	if req.UserScope != "" {
		event = event.WithUserScope(req.UserScope)
	}
	d.sink.Publish(event)
}
