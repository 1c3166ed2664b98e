// Package handler provides the built-in supply chain handlers: inventory
// analysis, demand forecasting and supplier sourcing. Each embeds BaseHandler
// for identity and capability plumbing and reads its typed input from the
// request context.
package handler

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/supplymesh/core"
)

// Context keys the built-in handlers read their inputs from.
const (
	// KeyInventoryData holds []InventoryItem.
	KeyInventoryData = "inventory_data"

	// KeyHistoricalDemand holds []DemandSeries.
	KeyHistoricalDemand = "historical_demand"

	// KeySupplierData holds []Supplier.
	KeySupplierData = "supplier_data"

	// KeyShortfallItems holds []string SKUs flagged by an upstream
	// inventory analysis, used to focus sourcing recommendations.
	KeyShortfallItems = "shortfall_items"

	// KeyDemandForecast holds upstream forecast output injected by the
	// collaboration pipeline.
	KeyDemandForecast = "demand_forecast"
)

// BaseHandler carries identity and capability metadata for a handler
// implementation. Embed it and implement Handle.
type BaseHandler struct {
	id   string
	name string
	caps []core.Capability
}

// NewBase constructs handler metadata. An empty id gets a generated one.
func NewBase(id, name string, caps ...core.Capability) BaseHandler {
	if id == "" {
		id = core.NewID()
	}
	return BaseHandler{id: id, name: name, caps: caps}
}

// ID implements core.Handler.
func (b BaseHandler) ID() string { return b.id }

// Name implements core.Handler.
func (b BaseHandler) Name() string { return b.name }

// Capabilities implements core.Handler.
func (b BaseHandler) Capabilities() []core.Capability { return b.caps }

// fromContext extracts a typed value from the request context. Values stored
// with their native Go type pass through directly; anything else (e.g. a
// decoded JSON payload) goes through a serialization round trip.
func fromContext[T any](ctx map[string]any, key string) (T, error) {
	var out T
	raw, ok := ctx[key]
	if !ok {
		return out, fmt.Errorf("request context missing %q", key)
	}
	if v, ok := raw.(T); ok {
		return v, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return out, fmt.Errorf("encode context value %q: %w", key, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode context value %q: %w", key, err)
	}
	return out, nil
}
