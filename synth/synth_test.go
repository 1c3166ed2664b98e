package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateSynthesize(t *testing.T) {
	doc := []byte(`{
		"forecasting": {
			"recommendations": ["Demand for SKU-1 is rising; consider raising its reorder point"],
			"data": {"forecasts": [{"sku": "SKU-1", "trend": "rising"}, {"sku": "SKU-2", "trend": "stable"}]}
		},
		"inventory": {
			"recommendations": [],
			"data": {"out_of_stock": ["SKU-3"], "low_stock": ["SKU-1", "SKU-4"]}
		},
		"sourcing": {
			"data": {"best_supplier": "acme"}
		}
	}`)

	recs, err := NewTemplate().Synthesize(context.Background(), doc)
	require.NoError(t, err)

	assert.Contains(t, recs, "Demand for SKU-1 is rising; consider raising its reorder point")
	assert.Contains(t, recs, "Expedite purchase orders: 1 SKUs are fully out of stock")
	assert.Contains(t, recs, "Review reorder points for the 2 SKUs running low")
	assert.Contains(t, recs, "Increase safety stock for 1 SKUs with rising demand")
	assert.Contains(t, recs, "Consolidate upcoming orders with supplier acme")
}

func TestTemplateHealthyDocument(t *testing.T) {
	recs, err := NewTemplate().Synthesize(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "healthy")
}

func TestTemplateRejectsInvalidJSON(t *testing.T) {
	_, err := NewTemplate().Synthesize(context.Background(), []byte(`{broken`))
	assert.Error(t, err)
}

func TestSplitRecommendations(t *testing.T) {
	text := "- Reorder SKU-1\n2. Switch to Acme\n\n  • Raise safety stock\nplain line\n"
	got := SplitRecommendations(text)
	assert.Equal(t, []string{
		"Reorder SKU-1",
		"Switch to Acme",
		"Raise safety stock",
		"plain line",
	}, got)
}
