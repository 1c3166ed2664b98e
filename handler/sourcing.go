package handler

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/supplymesh/core"
)

// Supplier profiles one vendor for scoring.
type Supplier struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Reliability  float64 `json:"reliability"` // 0..1
	LeadTimeDays int     `json:"lead_time_days"`
	UnitCost     float64 `json:"unit_cost"`
}

// SupplierScore is one scored vendor, higher is better.
type SupplierScore struct {
	Supplier Supplier `json:"supplier"`
	Score    float64  `json:"score"`
}

// Scoring weights: reliability dominates, then lead time, then cost.
const (
	weightReliability = 0.5
	weightLeadTime    = 0.3
	weightCost        = 0.2
)

// SourcingHandler ranks suppliers by a weighted blend of reliability, lead
// time and unit cost. When the request context carries shortfall SKUs from an
// upstream inventory analysis, the recommendations name the preferred vendor
// for covering them.
type SourcingHandler struct {
	BaseHandler
}

var _ core.Handler = (*SourcingHandler)(nil)

// NewSourcingHandler constructs the sourcing handler.
func NewSourcingHandler() *SourcingHandler {
	return &SourcingHandler{
		BaseHandler: NewBase("sourcing-handler", "Supplier Sourcing",
			core.Capability{
				Name:        "supplier_sourcing",
				Description: "Supplier scoring and selection",
				InputKinds:  []string{KeySupplierData},
				OutputKinds: []string{"supplier_ranking"},
			},
			core.Capability{
				Name:        "cost_optimization",
				Description: "Cost-weighted vendor comparison",
				InputKinds:  []string{KeySupplierData},
				OutputKinds: []string{"supplier_ranking"},
			},
		),
	}
}

// Handle implements core.Handler.
func (h *SourcingHandler) Handle(ctx context.Context, req *core.TaskRequest) (*core.TaskResult, error) {
	suppliers, err := fromContext[[]Supplier](req.Context, KeySupplierData)
	if err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return nil, fmt.Errorf("%q contains no suppliers", KeySupplierData)
	}

	scores := scoreSuppliers(suppliers)
	best := scores[0].Supplier

	recs := []string{
		fmt.Sprintf("Prefer %s for new orders (score %.2f)", best.Name, scores[0].Score),
	}
	if shortfall, err := fromContext[[]string](req.Context, KeyShortfallItems); err == nil && len(shortfall) > 0 {
		for _, sku := range shortfall {
			recs = append(recs, fmt.Sprintf("Source %s from %s to cover the projected shortfall", sku, best.Name))
		}
	}

	return &core.TaskResult{
		HandlerID: h.ID(),
		Action:    "supplier_ranking",
		Summary:   fmt.Sprintf("%d suppliers scored, best: %s", len(suppliers), best.Name),
		Data: map[string]any{
			"ranking":       scores,
			"best_supplier": best.ID,
		},
		Recommendations: recs,
	}, nil
}

// scoreSuppliers returns the vendors sorted best-first. Lead time and cost
// are normalized against the worst observed value so the blend stays in
// [0,1].
func scoreSuppliers(suppliers []Supplier) []SupplierScore {
	maxLead, maxCost := 0.0, 0.0
	for _, s := range suppliers {
		maxLead = math.Max(maxLead, float64(s.LeadTimeDays))
		maxCost = math.Max(maxCost, s.UnitCost)
	}

	scores := make([]SupplierScore, len(suppliers))
	for i, s := range suppliers {
		leadScore, costScore := 1.0, 1.0
		if maxLead > 0 {
			leadScore = 1 - float64(s.LeadTimeDays)/maxLead
		}
		if maxCost > 0 {
			costScore = 1 - s.UnitCost/maxCost
		}
		scores[i] = SupplierScore{
			Supplier: s,
			Score:    weightReliability*s.Reliability + weightLeadTime*leadScore + weightCost*costScore,
		}
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores
}
