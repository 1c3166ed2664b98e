package handler

import (
	"context"
	"testing"

	"github.com/hupe1980/supplymesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demandRequest(series []DemandSeries) *core.TaskRequest {
	return core.NewTaskRequest("forecast demand", func(o *core.TaskRequestOptions) {
		o.Context = map[string]any{KeyHistoricalDemand: series}
	})
}

func TestForecastRisingTrend(t *testing.T) {
	h := NewForecastingHandler()
	result, err := h.Handle(context.Background(), demandRequest([]DemandSeries{
		{SKU: "SKU-1", History: []float64{10, 20, 30, 40, 50}},
	}))

	require.NoError(t, err)
	forecasts := result.Data["forecasts"].([]Forecast)
	require.Len(t, forecasts, 1)

	f := forecasts[0]
	assert.Equal(t, "SKU-1", f.SKU)
	assert.Equal(t, "rising", f.Trend)
	// Trailing 3-average 40 plus slope 10.
	assert.InDelta(t, 50, f.NextPeriod, 1e-9)
	assert.Greater(t, f.Confidence, 0.5)

	require.NotEmpty(t, result.Recommendations)
	assert.Contains(t, result.Recommendations[0], "SKU-1")
}

func TestForecastStableAndFalling(t *testing.T) {
	h := NewForecastingHandler()
	result, err := h.Handle(context.Background(), demandRequest([]DemandSeries{
		{SKU: "flat", History: []float64{20, 20, 20, 20}},
		{SKU: "down", History: []float64{50, 40, 30, 20}},
	}))

	require.NoError(t, err)
	forecasts := result.Data["forecasts"].([]Forecast)
	require.Len(t, forecasts, 2)
	assert.Equal(t, "stable", forecasts[0].Trend)
	assert.Equal(t, "falling", forecasts[1].Trend)
	assert.Empty(t, result.Recommendations)
}

func TestForecastNeverNegative(t *testing.T) {
	h := NewForecastingHandler()
	result, err := h.Handle(context.Background(), demandRequest([]DemandSeries{
		{SKU: "dying", History: []float64{9, 6, 3, 0}},
	}))

	require.NoError(t, err)
	forecasts := result.Data["forecasts"].([]Forecast)
	assert.GreaterOrEqual(t, forecasts[0].NextPeriod, 0.0)
}

func TestForecastSkipsEmptySeries(t *testing.T) {
	h := NewForecastingHandler()

	result, err := h.Handle(context.Background(), demandRequest([]DemandSeries{
		{SKU: "empty"},
		{SKU: "ok", History: []float64{5, 5}},
	}))
	require.NoError(t, err)
	assert.Len(t, result.Data["forecasts"].([]Forecast), 1)

	_, err = h.Handle(context.Background(), demandRequest([]DemandSeries{{SKU: "empty"}}))
	require.Error(t, err)
}

func TestForecastMissingContext(t *testing.T) {
	h := NewForecastingHandler()
	_, err := h.Handle(context.Background(), core.NewTaskRequest("forecast demand"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyHistoricalDemand)
}
