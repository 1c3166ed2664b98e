// Package synth turns a pipeline's merged domain document into a flat list
// of actionable recommendations. The default Template synthesizer is
// deterministic and needs no network; the anthropic and openai subpackages
// delegate the narrative to a language model.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Synthesizer produces recommendations from the merged JSON document a
// collaboration pipeline run accumulates. The document is keyed by domain
// name (forecasting, inventory, sourcing), each holding its handler result.
type Synthesizer interface {
	Synthesize(ctx context.Context, doc []byte) ([]string, error)
}

// Template is the built-in rule-based synthesizer. It inspects the document
// for known conditions and emits a templated recommendation per finding,
// after carrying over every per-domain recommendation verbatim.
type Template struct{}

var _ Synthesizer = (*Template)(nil)

// NewTemplate constructs the rule-based synthesizer.
func NewTemplate() *Template { return &Template{} }

// Synthesize implements Synthesizer.
func (t *Template) Synthesize(_ context.Context, doc []byte) ([]string, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("synthesize: document is not valid JSON")
	}

	var recs []string
	root := gjson.ParseBytes(doc)

	for _, domain := range []string{"forecasting", "inventory", "sourcing"} {
		for _, r := range root.Get(domain + ".recommendations").Array() {
			recs = append(recs, r.String())
		}
	}

	if n := len(root.Get("inventory.data.out_of_stock").Array()); n > 0 {
		recs = append(recs, fmt.Sprintf("Expedite purchase orders: %d SKUs are fully out of stock", n))
	}
	if n := len(root.Get("inventory.data.low_stock").Array()); n > 0 {
		recs = append(recs, fmt.Sprintf("Review reorder points for the %d SKUs running low", n))
	}

	rising := 0
	root.Get("forecasting.data.forecasts").ForEach(func(_, f gjson.Result) bool {
		if f.Get("trend").String() == "rising" {
			rising++
		}
		return true
	})
	if rising > 0 {
		recs = append(recs, fmt.Sprintf("Increase safety stock for %d SKUs with rising demand", rising))
	}

	if best := root.Get("sourcing.data.best_supplier"); best.Exists() {
		recs = append(recs, fmt.Sprintf("Consolidate upcoming orders with supplier %s", best.String()))
	}

	if len(recs) == 0 {
		recs = append(recs, "Supply chain indicators are healthy; no action required")
	}
	return recs, nil
}

// SplitRecommendations normalizes model output into one recommendation per
// line, stripping list bullets and numbering.
func SplitRecommendations(text string) []string {
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•")
		line = strings.TrimLeft(line, "0123456789")
		line = strings.TrimLeft(line, ".)")
		line = strings.TrimSpace(line)
		if line != "" {
			recs = append(recs, line)
		}
	}
	return recs
}
