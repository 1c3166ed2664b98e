package handler

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/supplymesh/core"
)

// Replenishment planning constants: reorder points assume a one week supplier
// lead time plus three days of safety cover.
const (
	leadTimeDays    = 7
	safetyDays      = 3
	coverTargetDays = 14
)

// InventoryItem is one stocked SKU with its demand profile.
type InventoryItem struct {
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	AvgDailyDemand float64 `json:"avg_daily_demand"`
	UnitCost       float64 `json:"unit_cost,omitempty"`
}

// ReorderPoint returns the stock level at which the item should be reordered:
// demand over the supplier lead time plus safety stock.
func (i InventoryItem) ReorderPoint() int {
	return int(math.Ceil(i.AvgDailyDemand*leadTimeDays + i.AvgDailyDemand*safetyDays))
}

// ReorderSuggestion proposes an order quantity for a SKU running low.
type ReorderSuggestion struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// InventoryHandler analyzes stock levels: it flags out-of-stock and low-stock
// SKUs against their reorder points and proposes replenishment quantities
// targeting two weeks of cover.
type InventoryHandler struct {
	BaseHandler
}

var _ core.Handler = (*InventoryHandler)(nil)

// NewInventoryHandler constructs the inventory handler.
func NewInventoryHandler() *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: NewBase("inventory-handler", "Inventory Analysis",
			core.Capability{
				Name:        "inventory_management",
				Description: "Stock level analysis and reorder planning",
				InputKinds:  []string{KeyInventoryData},
				OutputKinds: []string{"inventory_analysis"},
			},
			core.Capability{
				Name:        "order_management",
				Description: "Replenishment order sizing",
				InputKinds:  []string{KeyInventoryData},
				OutputKinds: []string{"reorder_suggestions"},
			},
		),
	}
}

// Handle implements core.Handler.
func (h *InventoryHandler) Handle(ctx context.Context, req *core.TaskRequest) (*core.TaskResult, error) {
	items, err := fromContext[[]InventoryItem](req.Context, KeyInventoryData)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%q contains no items", KeyInventoryData)
	}

	var (
		outOfStock  []string
		lowStock    []string
		suggestions []ReorderSuggestion
		recs        []string
	)
	for _, item := range items {
		switch {
		case item.Quantity == 0:
			outOfStock = append(outOfStock, item.SKU)
		case item.Quantity <= item.ReorderPoint():
			lowStock = append(lowStock, item.SKU)
		default:
			continue
		}

		qty := int(math.Ceil(item.AvgDailyDemand*coverTargetDays)) - item.Quantity
		if qty > 0 {
			suggestions = append(suggestions, ReorderSuggestion{SKU: item.SKU, Quantity: qty})
		}
	}

	for _, sku := range outOfStock {
		recs = append(recs, fmt.Sprintf("URGENT: %s is out of stock; expedite replenishment", sku))
	}
	for _, sku := range lowStock {
		recs = append(recs, fmt.Sprintf("Reorder %s before it falls below safety stock", sku))
	}

	shortfall := append(append([]string{}, outOfStock...), lowStock...)

	return &core.TaskResult{
		HandlerID: h.ID(),
		Action:    "inventory_analysis",
		Summary:   fmt.Sprintf("%d SKUs analyzed: %d out of stock, %d low", len(items), len(outOfStock), len(lowStock)),
		Data: map[string]any{
			"total_items":         len(items),
			"out_of_stock":        outOfStock,
			"low_stock":           lowStock,
			"shortfall_items":     shortfall,
			"reorder_suggestions": suggestions,
		},
		Recommendations: recs,
	}, nil
}
