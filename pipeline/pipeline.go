// Package pipeline implements the multi-domain collaboration pipeline for
// composite requests. It runs the forecasting, inventory and sourcing domains
// in a fixed order, feeding each step's output into the next step's request
// context, and merges the surviving results into a single document from which
// the configured synthesizer derives recommendations. A skipped domain does
// not abort the run; later steps proceed without the missing input.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/supplymesh/core"
	"github.com/hupe1980/supplymesh/dispatch"
	"github.com/hupe1980/supplymesh/handler"
	"github.com/hupe1980/supplymesh/logging"
	"github.com/hupe1980/supplymesh/synth"
	"github.com/tidwall/sjson"
)

// Step is one pipeline stage: a domain name and the capability tag its
// dispatch is pinned to.
type Step struct {
	Domain     string
	Capability string
}

// DefaultSteps returns the fixed collaboration order: forecasting feeds
// inventory, inventory feeds sourcing.
func DefaultSteps() []Step {
	return []Step{
		{Domain: "forecasting", Capability: "demand_forecasting"},
		{Domain: "inventory", Capability: "inventory_management"},
		{Domain: "sourcing", Capability: "supplier_sourcing"},
	}
}

// Options configures a Pipeline.
type Options struct {
	// Steps overrides the default domain order.
	Steps []Step

	// Synthesizer derives the final recommendations from the merged
	// document. Defaults to the rule-based template synthesizer.
	Synthesizer synth.Synthesizer

	// Sink receives pipeline progress events. Defaults to a discard sink.
	Sink dispatch.EventSink

	// Logger receives pipeline diagnostics. Defaults to NoOp.
	Logger logging.Logger
}

// Pipeline coordinates multi-domain runs over a dispatcher.
type Pipeline struct {
	dispatcher  *dispatch.Dispatcher
	steps       []Step
	synthesizer synth.Synthesizer
	sink        dispatch.EventSink
	logger      logging.Logger
}

// New constructs a pipeline over the given dispatcher.
func New(d *dispatch.Dispatcher, optFns ...func(o *Options)) *Pipeline {
	opts := Options{
		Steps:       DefaultSteps(),
		Synthesizer: synth.NewTemplate(),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	p := &Pipeline{
		dispatcher:  d,
		steps:       opts.Steps,
		synthesizer: opts.Synthesizer,
		sink:        opts.Sink,
		logger:      opts.Logger,
	}
	if p.sink == nil {
		p.sink = nopSink{}
	}
	return p
}

type nopSink struct{}

func (nopSink) Publish(core.StreamingEvent) {}

// pipelineLogger is the optional richer logging surface for aggregate run
// metrics.
type pipelineLogger interface {
	LogPipelineRun(domains, skipped int, dur time.Duration, err error)
}

// Run executes every step in order against the dispatcher. Each step gets a
// derived request pinned to its capability, carrying the original context
// plus the outputs of earlier steps. Domains whose dispatch fails are
// recorded as skipped; the run fails only when every domain is skipped.
func (p *Pipeline) Run(ctx context.Context, req *core.TaskRequest) (*core.CompositeResult, error) {
	start := time.Now()
	doc := []byte(`{}`)
	doc, _ = sjson.SetBytes(doc, "request", req.Input)

	domains := make(map[string]*core.TaskResult)
	var skipped []core.DomainSkip

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p.publish(req, core.NewStreamingEvent(core.EventAnalysisProgress, req.ID, "pipeline", map[string]any{
			"stage":  "pipeline",
			"domain": step.Domain,
			"step":   i + 1,
			"total":  len(p.steps),
		}))

		derived := p.deriveRequest(req, step, domains)
		outcome, err := p.dispatcher.Dispatch(ctx, derived)
		if err != nil {
			skip := &core.DomainSkippedError{Domain: step.Domain, Err: err}
			skipped = append(skipped, core.DomainSkip{Domain: step.Domain, Reason: err.Error()})
			p.publish(req, core.NewStreamingEvent(core.EventDomainAlert, req.ID, "pipeline", map[string]any{
				"domain": step.Domain,
				"reason": skip.Error(),
			}))
			p.logger.Warn("pipeline domain skipped", "task_id", req.ID, "domain", step.Domain, "error", err)
			continue
		}

		domains[step.Domain] = outcome.Result
		doc, _ = sjson.SetBytes(doc, step.Domain, outcome.Result)
	}

	if len(domains) == 0 {
		// Every domain exhausted: the composite itself is exhausted.
		attempts := make([]core.Attempt, len(skipped))
		for i, s := range skipped {
			attempts[i] = core.Attempt{HandlerName: s.Domain, Reason: s.Reason}
		}
		err := &core.DispatchExhaustedError{TaskID: req.ID, Attempts: attempts}
		p.publish(req, core.NewStreamingEvent(core.EventTaskFailed, req.ID, "pipeline", map[string]any{
			"reason": err.Error(),
		}))
		if pl, ok := p.logger.(pipelineLogger); ok {
			pl.LogPipelineRun(0, len(skipped), time.Since(start), err)
		}
		return nil, err
	}

	recs, err := p.synthesizer.Synthesize(ctx, doc)
	if err != nil {
		// The report is still useful without the narrative layer.
		p.logger.Warn("synthesizer failed, falling back to template", "task_id", req.ID, "error", err)
		recs, err = synth.NewTemplate().Synthesize(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("pipeline for task %s: synthesize: %w", req.ID, err)
		}
	}

	result := &core.CompositeResult{
		TaskID:          req.ID,
		Domains:         domains,
		Skipped:         skipped,
		Recommendations: recs,
		Document:        doc,
	}
	p.publish(req, core.NewStreamingEvent(core.EventTaskCompleted, req.ID, "pipeline", map[string]any{
		"domains":          len(domains),
		"skipped":          len(skipped),
		"recommendations":  len(recs),
		"response_time_ms": time.Since(start).Milliseconds(),
	}))
	if pl, ok := p.logger.(pipelineLogger); ok {
		pl.LogPipelineRun(len(domains), len(skipped), time.Since(start), nil)
	}
	p.logger.Info("pipeline run complete", "task_id", req.ID, "domains", len(domains), "skipped", len(skipped))
	return result, nil
}

// deriveRequest builds the per-step dispatch request: the original context
// plus earlier step outputs, pinned to the step's capability. The derived
// input is a neutral label so routing is driven by the pinned tag alone.
func (p *Pipeline) deriveRequest(req *core.TaskRequest, step Step, domains map[string]*core.TaskResult) *core.TaskRequest {
	stepCtx := make(map[string]any, len(req.Context)+2)
	for k, v := range req.Context {
		stepCtx[k] = v
	}

	if f, ok := domains["forecasting"]; ok && step.Domain == "inventory" {
		stepCtx[handler.KeyDemandForecast] = f.Data
	}
	if inv, ok := domains["inventory"]; ok && step.Domain == "sourcing" {
		if shortfall, ok := inv.Data["shortfall_items"]; ok {
			stepCtx[handler.KeyShortfallItems] = shortfall
		}
	}

	return core.NewTaskRequest(fmt.Sprintf("%s analysis", step.Domain), func(o *core.TaskRequestOptions) {
		o.Context = stepCtx
		o.RequiredCapabilities = []string{step.Capability}
		o.Priority = req.Priority
		o.UserScope = req.UserScope
	})
}

func (p *Pipeline) publish(req *core.TaskRequest, event core.StreamingEvent) {
	if req.UserScope != "" {
		event = event.WithUserScope(req.UserScope)
	}
	p.sink.Publish(event)
}
