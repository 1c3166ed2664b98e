package handler

import (
	"context"
	"testing"

	"github.com/hupe1980/supplymesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inventoryRequest(items []InventoryItem) *core.TaskRequest {
	return core.NewTaskRequest("check stock levels", func(o *core.TaskRequestOptions) {
		o.Context = map[string]any{KeyInventoryData: items}
	})
}

func TestInventoryAnalysis(t *testing.T) {
	h := NewInventoryHandler()
	result, err := h.Handle(context.Background(), inventoryRequest([]InventoryItem{
		{SKU: "SKU-1", Name: "Widget", Quantity: 0, AvgDailyDemand: 4},
		{SKU: "SKU-2", Name: "Gadget", Quantity: 10, AvgDailyDemand: 5},  // reorder point 50
		{SKU: "SKU-3", Name: "Gizmo", Quantity: 500, AvgDailyDemand: 2}, // healthy
	}))

	require.NoError(t, err)
	assert.Equal(t, "inventory_analysis", result.Action)
	assert.Equal(t, []string{"SKU-1"}, result.Data["out_of_stock"])
	assert.Equal(t, []string{"SKU-2"}, result.Data["low_stock"])
	assert.Equal(t, []string{"SKU-1", "SKU-2"}, result.Data["shortfall_items"])

	suggestions := result.Data["reorder_suggestions"].([]ReorderSuggestion)
	require.Len(t, suggestions, 2)
	assert.Equal(t, ReorderSuggestion{SKU: "SKU-1", Quantity: 56}, suggestions[0])
	assert.Equal(t, ReorderSuggestion{SKU: "SKU-2", Quantity: 60}, suggestions[1])

	require.NotEmpty(t, result.Recommendations)
	assert.Contains(t, result.Recommendations[0], "SKU-1")
}

func TestInventoryReorderPoint(t *testing.T) {
	item := InventoryItem{SKU: "S", AvgDailyDemand: 3.5}
	// 3.5*7 + 3.5*3 = 35
	assert.Equal(t, 35, item.ReorderPoint())
}

func TestInventoryMissingContext(t *testing.T) {
	h := NewInventoryHandler()

	_, err := h.Handle(context.Background(), core.NewTaskRequest("check stock"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyInventoryData)

	_, err = h.Handle(context.Background(), inventoryRequest(nil))
	require.Error(t, err)
}

func TestInventoryDecodesUntypedContext(t *testing.T) {
	h := NewInventoryHandler()
	req := core.NewTaskRequest("check stock", func(o *core.TaskRequestOptions) {
		// The shape a JSON transport hands over.
		o.Context = map[string]any{
			KeyInventoryData: []any{
				map[string]any{"sku": "SKU-9", "name": "Sprocket", "quantity": 0.0, "avg_daily_demand": 2.0},
			},
		}
	})

	result, err := h.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"SKU-9"}, result.Data["out_of_stock"])
}
