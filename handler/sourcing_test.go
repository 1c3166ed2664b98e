package handler

import (
	"context"
	"testing"

	"github.com/hupe1980/supplymesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourcingRequest(suppliers []Supplier, extra map[string]any) *core.TaskRequest {
	ctx := map[string]any{KeySupplierData: suppliers}
	for k, v := range extra {
		ctx[k] = v
	}
	return core.NewTaskRequest("review suppliers", func(o *core.TaskRequestOptions) {
		o.Context = ctx
	})
}

var testSuppliers = []Supplier{
	{ID: "acme", Name: "Acme Corp", Reliability: 0.95, LeadTimeDays: 5, UnitCost: 12.0},
	{ID: "globex", Name: "Globex", Reliability: 0.60, LeadTimeDays: 21, UnitCost: 8.0},
	{ID: "initech", Name: "Initech", Reliability: 0.80, LeadTimeDays: 10, UnitCost: 15.0},
}

func TestSourcingRanksSuppliers(t *testing.T) {
	h := NewSourcingHandler()
	result, err := h.Handle(context.Background(), sourcingRequest(testSuppliers, nil))

	require.NoError(t, err)
	assert.Equal(t, "supplier_ranking", result.Action)
	assert.Equal(t, "acme", result.Data["best_supplier"])

	ranking := result.Data["ranking"].([]SupplierScore)
	require.Len(t, ranking, 3)
	assert.Equal(t, "acme", ranking[0].Supplier.ID)
	for i := 1; i < len(ranking); i++ {
		assert.LessOrEqual(t, ranking[i].Score, ranking[i-1].Score)
	}

	require.NotEmpty(t, result.Recommendations)
	assert.Contains(t, result.Recommendations[0], "Acme Corp")
}

func TestSourcingShortfallRecommendations(t *testing.T) {
	h := NewSourcingHandler()
	result, err := h.Handle(context.Background(), sourcingRequest(testSuppliers, map[string]any{
		KeyShortfallItems: []string{"SKU-1", "SKU-2"},
	}))

	require.NoError(t, err)
	require.Len(t, result.Recommendations, 3)
	assert.Contains(t, result.Recommendations[1], "SKU-1")
	assert.Contains(t, result.Recommendations[2], "SKU-2")
}

func TestSourcingSingleSupplier(t *testing.T) {
	h := NewSourcingHandler()
	result, err := h.Handle(context.Background(), sourcingRequest([]Supplier{
		{ID: "only", Name: "Only One", Reliability: 0.5, LeadTimeDays: 7, UnitCost: 3},
	}, nil))

	require.NoError(t, err)
	assert.Equal(t, "only", result.Data["best_supplier"])
}

func TestSourcingMissingContext(t *testing.T) {
	h := NewSourcingHandler()

	_, err := h.Handle(context.Background(), core.NewTaskRequest("review suppliers"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeySupplierData)

	_, err = h.Handle(context.Background(), sourcingRequest(nil, nil))
	require.Error(t, err)
}
