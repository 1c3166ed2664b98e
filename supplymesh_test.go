package supplymesh

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/supplymesh/core"
	"github.com/hupe1980/supplymesh/handler"
	"github.com/hupe1980/supplymesh/intent"
	"github.com/hupe1980/supplymesh/internal/testutil"
	"github.com/hupe1980/supplymesh/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o := New()
	t.Cleanup(o.Close)
	require.NoError(t, o.RegisterHandler(handler.NewInventoryHandler()))
	require.NoError(t, o.RegisterHandler(handler.NewForecastingHandler()))
	require.NoError(t, o.RegisterHandler(handler.NewSourcingHandler()))
	return o
}

func requestContext() map[string]any {
	return map[string]any{
		handler.KeyInventoryData: []handler.InventoryItem{
			{SKU: "SKU-1", Name: "Widget", Quantity: 0, AvgDailyDemand: 4},
			{SKU: "SKU-2", Name: "Gadget", Quantity: 300, AvgDailyDemand: 2},
		},
		handler.KeyHistoricalDemand: []handler.DemandSeries{
			{SKU: "SKU-1", History: []float64{10, 20, 30}},
		},
		handler.KeySupplierData: []handler.Supplier{
			{ID: "acme", Name: "Acme Corp", Reliability: 0.9, LeadTimeDays: 5, UnitCost: 10},
		},
	}
}

func TestSubmitSingleDomain(t *testing.T) {
	o := newOrchestrator(t)

	req := core.NewTaskRequest("check stock levels", func(opt *core.TaskRequestOptions) {
		opt.Context = requestContext()
	})
	resp, err := o.Submit(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, intent.CategoryInventory, resp.Intent.Category)
	require.NotNil(t, resp.Dispatch)
	assert.Nil(t, resp.Composite)
	assert.Equal(t, core.StateSucceeded, resp.Dispatch.State)
	assert.Equal(t, "inventory_analysis", resp.Dispatch.Result.Action)
}

func TestSubmitEnrichesInventoryWithForecast(t *testing.T) {
	o := newOrchestrator(t)

	req := core.NewTaskRequest("check stock levels and forecast demand", func(opt *core.TaskRequestOptions) {
		opt.Context = requestContext()
	})
	resp, err := o.Submit(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, intent.CategoryInventory, resp.Intent.Category)
	require.NotNil(t, resp.Dispatch)
	assert.Equal(t, "inventory_analysis", resp.Dispatch.Result.Action)

	require.Contains(t, resp.Enrichments, "forecasting")
	assert.Equal(t, "demand_forecast", resp.Enrichments["forecasting"].Action)
}

func TestSubmitEnrichesShortfallWithSupplierAdvice(t *testing.T) {
	o := newOrchestrator(t)

	req := core.NewTaskRequest("low stock items, recommend a supplier", func(opt *core.TaskRequestOptions) {
		opt.Context = requestContext()
	})
	resp, err := o.Submit(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, intent.CategoryInventory, resp.Intent.Category)
	require.Contains(t, resp.Enrichments, "sourcing")

	// SKU-1 is out of stock in the fixture; the follow-up names a vendor
	// covering it.
	assert.Contains(t, resp.Enrichments["sourcing"].Recommendations,
		"Source SKU-1 from Acme Corp to cover the projected shortfall")
}

func TestSubmitEnrichmentFailureIsNonFatal(t *testing.T) {
	o := New()
	t.Cleanup(o.Close)
	require.NoError(t, o.RegisterHandler(handler.NewInventoryHandler()))

	// No forecasting handler registered: the follow-up cannot route, but the
	// primary result still comes back.
	req := core.NewTaskRequest("check stock levels and forecast demand", func(opt *core.TaskRequestOptions) {
		opt.Context = requestContext()
	})
	resp, err := o.Submit(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, resp.Dispatch)
	assert.Equal(t, core.StateSucceeded, resp.Dispatch.State)
	assert.Empty(t, resp.Enrichments)
}

func TestSubmitCompositeRunsPipeline(t *testing.T) {
	o := newOrchestrator(t)

	req := core.NewTaskRequest("optimize the whole supply chain", func(opt *core.TaskRequestOptions) {
		opt.Context = requestContext()
	})
	resp, err := o.Submit(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, resp.Intent.Composite())
	require.NotNil(t, resp.Composite)
	assert.Nil(t, resp.Dispatch)
	assert.Len(t, resp.Composite.Domains, 3)
	assert.NotEmpty(t, resp.Composite.Recommendations)
}

func TestSubmitRoutingFailure(t *testing.T) {
	o := New()
	t.Cleanup(o.Close)

	_, err := o.Submit(context.Background(), core.NewTaskRequest("check stock"))

	var rf *core.RoutingFailureError
	require.ErrorAs(t, err, &rf)
}

func TestEventsReachSubscribers(t *testing.T) {
	o := newOrchestrator(t)

	ch, id := o.SubscribeChannel(32)
	defer o.Unsubscribe(id)

	req := core.NewTaskRequest("check stock levels", func(opt *core.TaskRequestOptions) {
		opt.Context = requestContext()
	})
	_, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	var sawCompleted bool
	for !sawCompleted {
		select {
		case ev := <-ch:
			if ev.Type == core.EventTaskCompleted {
				sawCompleted = true
			}
		case <-deadline:
			t.Fatal("no task-completed event observed")
		}
	}
}

func TestHandlersSnapshotAndHistory(t *testing.T) {
	o := newOrchestrator(t)

	req := core.NewTaskRequest("check stock levels", func(opt *core.TaskRequestOptions) {
		opt.Context = requestContext()
	})
	_, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	snaps := o.Handlers()
	require.Len(t, snaps, 3)
	assert.Equal(t, "inventory-handler", snaps[0].ID)
	assert.NotNil(t, snaps[0].LastUsed)

	history := o.History()
	require.Len(t, history, 1)
	assert.Equal(t, core.StateSucceeded, history[0].Outcome.State)
}

func TestDeactivatedHandlerNoLongerServes(t *testing.T) {
	o := New()
	t.Cleanup(o.Close)
	require.NoError(t, o.RegisterHandler(handler.NewInventoryHandler()))
	o.DeactivateHandler("inventory-handler")

	_, err := o.Submit(context.Background(), core.NewTaskRequest("check stock levels"))
	var rf *core.RoutingFailureError
	require.ErrorAs(t, err, &rf)
}

func TestCustomRuleAndHandler(t *testing.T) {
	o := New()
	t.Cleanup(o.Close)

	h := testutil.NewStubHandler("logistics-handler", "logistics").Succeeding(&core.TaskResult{
		HandlerID: "logistics-handler",
		Action:    "shipment_tracking",
	})
	require.NoError(t, o.RegisterHandler(h))
	o.AddRule(rule.Rule{
		Name:                 "logistics",
		Predicate:            rule.Keywords("shipment", "shipping"),
		RequiredCapabilities: []string{"logistics"},
	})

	resp, err := o.Submit(context.Background(), core.NewTaskRequest("track my shipment"))
	require.NoError(t, err)
	assert.Equal(t, "shipment_tracking", resp.Dispatch.Result.Action)
}
