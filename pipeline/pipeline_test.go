package pipeline

import (
	"context"
	"testing"

	"github.com/hupe1980/supplymesh/core"
	"github.com/hupe1980/supplymesh/dispatch"
	"github.com/hupe1980/supplymesh/handler"
	"github.com/hupe1980/supplymesh/internal/testutil"
	"github.com/hupe1980/supplymesh/registry"
	"github.com/hupe1980/supplymesh/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newPipeline(t *testing.T, sink dispatch.EventSink, handlers ...core.Handler) *Pipeline {
	t.Helper()
	reg := registry.New()
	for _, h := range handlers {
		_, err := reg.Register(h)
		require.NoError(t, err)
	}
	d := dispatch.New(reg, rule.NewRouter(reg))
	return New(d, func(o *Options) {
		o.Sink = sink
	})
}

func compositeRequest(optFns ...func(o *core.TaskRequestOptions)) *core.TaskRequest {
	optFns = append(optFns, func(o *core.TaskRequestOptions) {
		o.Context = map[string]any{
			handler.KeyInventoryData: []handler.InventoryItem{
				{SKU: "SKU-1", Name: "Widget", Quantity: 0, AvgDailyDemand: 4},
				{SKU: "SKU-2", Name: "Gadget", Quantity: 400, AvgDailyDemand: 2},
			},
			handler.KeyHistoricalDemand: []handler.DemandSeries{
				{SKU: "SKU-1", History: []float64{10, 20, 30, 40}},
			},
			handler.KeySupplierData: []handler.Supplier{
				{ID: "acme", Name: "Acme Corp", Reliability: 0.9, LeadTimeDays: 5, UnitCost: 10},
				{ID: "globex", Name: "Globex", Reliability: 0.5, LeadTimeDays: 20, UnitCost: 8},
			},
		}
	})
	return core.NewTaskRequest("optimize the supply chain", optFns...)
}

func TestPipelineFullRun(t *testing.T) {
	p := newPipeline(t, nil,
		handler.NewForecastingHandler(),
		handler.NewInventoryHandler(),
		handler.NewSourcingHandler(),
	)

	result, err := p.Run(context.Background(), compositeRequest())

	require.NoError(t, err)
	assert.Len(t, result.Domains, 3)
	assert.Empty(t, result.Skipped)
	require.Contains(t, result.Domains, "forecasting")
	require.Contains(t, result.Domains, "inventory")
	require.Contains(t, result.Domains, "sourcing")
	assert.NotEmpty(t, result.Recommendations)

	doc := gjson.ParseBytes(result.Document)
	assert.Equal(t, "optimize the supply chain", doc.Get("request").String())
	assert.Equal(t, "inventory_analysis", doc.Get("inventory.action").String())
	assert.Equal(t, "acme", doc.Get("sourcing.data.best_supplier").String())
}

func TestPipelineFeedsShortfallToSourcing(t *testing.T) {
	p := newPipeline(t, nil,
		handler.NewForecastingHandler(),
		handler.NewInventoryHandler(),
		handler.NewSourcingHandler(),
	)

	result, err := p.Run(context.Background(), compositeRequest())
	require.NoError(t, err)

	// The sourcing step saw SKU-1's shortfall from the inventory step.
	var found bool
	for _, rec := range result.Domains["sourcing"].Recommendations {
		if rec == "Source SKU-1 from Acme Corp to cover the projected shortfall" {
			found = true
		}
	}
	assert.True(t, found, "sourcing recommendations: %v", result.Domains["sourcing"].Recommendations)
}

func TestPipelineContinuesPastSkippedDomain(t *testing.T) {
	sink := testutil.NewCollectorSink()
	// No forecasting handler registered: that domain is skipped.
	p := newPipeline(t, sink,
		handler.NewInventoryHandler(),
		handler.NewSourcingHandler(),
	)

	result, err := p.Run(context.Background(), compositeRequest())

	require.NoError(t, err)
	assert.Len(t, result.Domains, 2)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "forecasting", result.Skipped[0].Domain)

	var alerts int
	for _, ev := range sink.Events() {
		if ev.Type == core.EventDomainAlert {
			alerts++
		}
	}
	assert.Equal(t, 1, alerts)
}

func TestPipelineAllDomainsSkipped(t *testing.T) {
	p := newPipeline(t, nil)

	result, err := p.Run(context.Background(), compositeRequest())

	assert.Nil(t, result)
	var exhausted *core.DispatchExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, exhausted.Attempts, 3)
}

func TestPipelineHandlerFailureBecomesSkip(t *testing.T) {
	// Forecasting handler exists but fails: exhausted dispatch becomes a skip.
	broken := testutil.NewStubHandler("broken-forecaster", "demand_forecasting")
	broken.HandleFunc = func(context.Context, *core.TaskRequest) (*core.TaskResult, error) {
		panic("bad series")
	}
	p := newPipeline(t, nil,
		broken,
		handler.NewInventoryHandler(),
		handler.NewSourcingHandler(),
	)

	result, err := p.Run(context.Background(), compositeRequest())

	require.NoError(t, err)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "forecasting", result.Skipped[0].Domain)
	assert.Contains(t, result.Skipped[0].Reason, "panic")
}

func TestPipelineScopesEventsToUser(t *testing.T) {
	sink := testutil.NewCollectorSink()
	p := newPipeline(t, sink, handler.NewInventoryHandler())

	req := compositeRequest(func(o *core.TaskRequestOptions) {
		o.UserScope = "user-7"
	})
	_, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	for _, ev := range sink.Events() {
		require.NotNil(t, ev.UserScope, "event %s missing user scope", ev.Type)
		assert.Equal(t, "user-7", *ev.UserScope)
	}
}
