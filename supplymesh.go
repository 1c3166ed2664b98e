// Package supplymesh provides a high-level façade over the supply chain
// orchestration core (registry, routing, dispatch, collaboration pipeline and
// broadcast bus). Most applications interact with this package by:
//  1. Creating an Orchestrator via New() (optionally overriding rules,
//     synthesizer or logger)
//  2. Registering one or more handlers (the built-in inventory, forecasting
//     and sourcing handlers, or custom ones)
//  3. Submitting requests via Submit and observing live events through
//     Subscribe
//
// The façade delegates single-domain work to the dispatcher and composite
// requests to the collaboration pipeline, with the intent classifier deciding
// between the two. All defaults are safe for local development and testing.
package supplymesh

import (
	"context"
	"fmt"

	"github.com/hupe1980/supplymesh/bus"
	"github.com/hupe1980/supplymesh/core"
	"github.com/hupe1980/supplymesh/dispatch"
	"github.com/hupe1980/supplymesh/handler"
	"github.com/hupe1980/supplymesh/intent"
	"github.com/hupe1980/supplymesh/logging"
	"github.com/hupe1980/supplymesh/pipeline"
	"github.com/hupe1980/supplymesh/registry"
	"github.com/hupe1980/supplymesh/rule"
	"github.com/hupe1980/supplymesh/synth"
)

// Options configures the Orchestrator instance.
type Options struct {
	// Rules is the routing table. Defaults to the built-in supply chain
	// rules.
	Rules []rule.Rule

	// Synthesizer derives composite recommendations. Defaults to the
	// rule-based template synthesizer.
	Synthesizer synth.Synthesizer

	// Classifier decides between single-domain dispatch and the
	// collaboration pipeline. Defaults to the built-in keyword classifier.
	Classifier *intent.Classifier

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Response is the outcome of one submitted request. Exactly one of Dispatch
// and Composite is set, according to the classified intent. Enrichments
// carries follow-up results requested by intent flags, keyed by domain.
type Response struct {
	Intent      intent.Intent               `json:"intent"`
	Dispatch    *core.DispatchResult        `json:"dispatch,omitempty"`
	Composite   *core.CompositeResult       `json:"composite,omitempty"`
	Enrichments map[string]*core.TaskResult `json:"enrichments,omitempty"`
}

// Orchestrator is the high-level façade aggregating the orchestration core.
type Orchestrator struct {
	registry   *registry.Registry
	router     *rule.Router
	dispatcher *dispatch.Dispatcher
	pipeline   *pipeline.Pipeline
	bus        *bus.Bus
	classifier *intent.Classifier
	logger     logging.Logger
}

// New creates a new Orchestrator with optional overrides.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Rules:       rule.DefaultRules(),
		Synthesizer: synth.NewTemplate(),
		Classifier:  intent.NewClassifier(),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	b := bus.New(func(o *bus.Options) {
		o.Logger = opts.Logger
	})
	reg := registry.New(func(o *registry.Options) {
		o.Logger = opts.Logger
	})
	router := rule.NewRouter(reg, func(o *rule.RouterOptions) {
		o.Rules = opts.Rules
		o.Logger = opts.Logger
	})
	d := dispatch.New(reg, router, func(o *dispatch.Options) {
		o.Sink = b
		o.Logger = opts.Logger
	})
	p := pipeline.New(d, func(o *pipeline.Options) {
		o.Synthesizer = opts.Synthesizer
		o.Sink = b
		o.Logger = opts.Logger
	})

	return &Orchestrator{
		registry:   reg,
		router:     router,
		dispatcher: d,
		pipeline:   p,
		bus:        b,
		classifier: opts.Classifier,
		logger:     opts.Logger,
	}
}

// RegisterHandler adds a handler to the registry.
func (o *Orchestrator) RegisterHandler(h core.Handler) error {
	_, err := o.registry.Register(h)
	return err
}

// AddRule appends a routing rule.
func (o *Orchestrator) AddRule(r rule.Rule) { o.router.AddRule(r) }

// Submit classifies the request and runs it: composite intents go through
// the collaboration pipeline, everything else through a single dispatch.
// Intent flags on a single-domain request trigger follow-up dispatches whose
// results are attached as enrichments.
func (o *Orchestrator) Submit(ctx context.Context, req *core.TaskRequest) (*Response, error) {
	in := o.classifier.Classify(req)

	if in.Composite() {
		composite, err := o.pipeline.Run(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Response{Intent: in, Composite: composite}, nil
	}

	outcome, err := o.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Response{
		Intent:      in,
		Dispatch:    outcome,
		Enrichments: o.enrich(ctx, req, in, outcome.Result),
	}, nil
}

// followUp is one flag-requested enrichment dispatch.
type followUp struct {
	domain     string
	capability string
	inject     func(stepCtx map[string]any)
}

// followUps maps the classified intent onto the enrichment dispatches its
// flags request. An inventory result can pull in a demand forecast and
// supplier advice for its shortfall, a forecast can feed an inventory check,
// a sourcing result can consult a logistics handler.
func followUps(in intent.Intent, primary *core.TaskResult) []followUp {
	var steps []followUp

	switch in.Category {
	case intent.CategoryInventory:
		if in.Has(intent.FlagNeedsForecasting) {
			steps = append(steps, followUp{domain: "forecasting", capability: "demand_forecasting"})
		}
		if in.Has(intent.FlagNeedsSupplierAdvice) {
			if shortfall, ok := primary.Data["shortfall_items"]; ok {
				steps = append(steps, followUp{domain: "sourcing", capability: "supplier_sourcing", inject: func(c map[string]any) {
					c[handler.KeyShortfallItems] = shortfall
				}})
			}
		}
	case intent.CategoryForecasting:
		if in.Has(intent.FlagNeedsInventoryIntegration) {
			steps = append(steps, followUp{domain: "inventory", capability: "inventory_management", inject: func(c map[string]any) {
				c[handler.KeyDemandForecast] = primary.Data
			}})
		}
	case intent.CategorySourcing:
		if in.Has(intent.FlagNeedsLogistics) {
			steps = append(steps, followUp{domain: "logistics", capability: "logistics"})
		}
	}

	return steps
}

// enrich runs the flag-requested follow-up dispatches. A follow-up that fails
// (typically because no handler covers its capability) is skipped; the
// primary result stands on its own.
func (o *Orchestrator) enrich(ctx context.Context, req *core.TaskRequest, in intent.Intent, primary *core.TaskResult) map[string]*core.TaskResult {
	var enrichments map[string]*core.TaskResult

	for _, step := range followUps(in, primary) {
		stepCtx := make(map[string]any, len(req.Context)+1)
		for k, v := range req.Context {
			stepCtx[k] = v
		}
		if step.inject != nil {
			step.inject(stepCtx)
		}

		derived := core.NewTaskRequest(fmt.Sprintf("%s analysis", step.domain), func(opt *core.TaskRequestOptions) {
			opt.Context = stepCtx
			opt.RequiredCapabilities = []string{step.capability}
			opt.Priority = req.Priority
			opt.UserScope = req.UserScope
		})

		outcome, err := o.dispatcher.Dispatch(ctx, derived)
		if err != nil {
			o.logger.Warn("enrichment skipped", "task_id", req.ID, "domain", step.domain, "error", err)
			continue
		}
		if enrichments == nil {
			enrichments = make(map[string]*core.TaskResult)
		}
		enrichments[step.domain] = outcome.Result
	}

	return enrichments
}

// Subscribe registers a sink for live events and returns its subscription ID.
func (o *Orchestrator) Subscribe(sink bus.Sink) string { return o.bus.Subscribe(sink) }

// SubscribeChannel registers a buffered channel subscriber.
func (o *Orchestrator) SubscribeChannel(buffer int) (<-chan core.StreamingEvent, string) {
	return o.bus.SubscribeChannel(buffer)
}

// Unsubscribe removes a subscriber.
func (o *Orchestrator) Unsubscribe(id string) { o.bus.Unsubscribe(id) }

// Publish broadcasts an event to all subscribers. External feeds (e.g. the
// order feed) use this to share the core's event stream.
func (o *Orchestrator) Publish(event core.StreamingEvent) { o.bus.Publish(event) }

// Handlers returns point-in-time snapshots of every registration.
func (o *Orchestrator) Handlers() []core.HandlerSnapshot { return o.registry.Snapshot() }

// DeactivateHandler retires a handler from routing. Its registration and
// metrics remain visible.
func (o *Orchestrator) DeactivateHandler(id string) { o.registry.Deactivate(id) }

// History returns the archived terminal outcomes in arrival order.
func (o *Orchestrator) History() []dispatch.TaskRecord {
	return o.dispatcher.History().Snapshot()
}

// Close drains and stops the broadcast bus.
func (o *Orchestrator) Close() { o.bus.Close() }
