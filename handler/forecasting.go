package handler

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/supplymesh/core"
)

// movingAverageWindow is the number of trailing periods the forecast
// averages over.
const movingAverageWindow = 3

// DemandSeries is the historical demand for one SKU, oldest period first.
type DemandSeries struct {
	SKU     string    `json:"sku"`
	History []float64 `json:"history"`
}

// Forecast is the per-SKU prediction for the next period.
type Forecast struct {
	SKU        string  `json:"sku"`
	NextPeriod float64 `json:"next_period"`
	Trend      string  `json:"trend"`
	Confidence float64 `json:"confidence"`
}

// ForecastingHandler predicts next-period demand per SKU using a trailing
// moving average adjusted by the series' linear trend.
type ForecastingHandler struct {
	BaseHandler
}

var _ core.Handler = (*ForecastingHandler)(nil)

// NewForecastingHandler constructs the forecasting handler.
func NewForecastingHandler() *ForecastingHandler {
	return &ForecastingHandler{
		BaseHandler: NewBase("forecasting-handler", "Demand Forecasting",
			core.Capability{
				Name:        "demand_forecasting",
				Description: "Next-period demand prediction from historical series",
				InputKinds:  []string{KeyHistoricalDemand},
				OutputKinds: []string{"demand_forecast"},
			},
		),
	}
}

// Handle implements core.Handler.
func (h *ForecastingHandler) Handle(ctx context.Context, req *core.TaskRequest) (*core.TaskResult, error) {
	series, err := fromContext[[]DemandSeries](req.Context, KeyHistoricalDemand)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%q contains no series", KeyHistoricalDemand)
	}

	forecasts := make([]Forecast, 0, len(series))
	var recs []string
	for _, s := range series {
		if len(s.History) == 0 {
			continue
		}
		f := forecastSeries(s)
		forecasts = append(forecasts, f)
		if f.Trend == "rising" {
			recs = append(recs, fmt.Sprintf("Demand for %s is rising; consider raising its reorder point", s.SKU))
		}
	}
	if len(forecasts) == 0 {
		return nil, fmt.Errorf("%q contains only empty series", KeyHistoricalDemand)
	}

	return &core.TaskResult{
		HandlerID: h.ID(),
		Action:    "demand_forecast",
		Summary:   fmt.Sprintf("forecast generated for %d SKUs", len(forecasts)),
		Data: map[string]any{
			"forecasts": forecasts,
		},
		Recommendations: recs,
	}, nil
}

func forecastSeries(s DemandSeries) Forecast {
	window := movingAverageWindow
	if len(s.History) < window {
		window = len(s.History)
	}

	var sum float64
	for _, v := range s.History[len(s.History)-window:] {
		sum += v
	}
	avg := sum / float64(window)

	// Per-period drift across the whole series.
	var slope float64
	if len(s.History) > 1 {
		slope = (s.History[len(s.History)-1] - s.History[0]) / float64(len(s.History)-1)
	}

	trend := "stable"
	switch {
	case slope > 0.05*math.Max(avg, 1):
		trend = "rising"
	case slope < -0.05*math.Max(avg, 1):
		trend = "falling"
	}

	// Longer histories earn more confidence, up to a cap.
	confidence := math.Min(0.95, 0.5+0.05*float64(len(s.History)))

	return Forecast{
		SKU:        s.SKU,
		NextPeriod: math.Max(0, avg+slope),
		Trend:      trend,
		Confidence: confidence,
	}
}
