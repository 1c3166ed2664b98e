// Package intent implements lightweight keyword-based intent classification
// for supply chain requests. The classifier decides whether a request targets
// a single domain or needs the multi-domain collaboration pipeline, and
// derives boolean flags the orchestrator uses to attach follow-up analyses to
// single-domain responses.
package intent

import (
	"strings"

	"github.com/hupe1980/supplymesh/core"
)

// Category is the coarse request classification.
type Category string

const (
	// CategoryInventory covers stock level and reorder requests.
	CategoryInventory Category = "inventory"

	// CategoryForecasting covers demand prediction requests.
	CategoryForecasting Category = "forecasting"

	// CategorySourcing covers supplier and procurement requests.
	CategorySourcing Category = "sourcing"

	// CategoryComposite marks requests spanning several domains; these run
	// through the collaboration pipeline rather than a single dispatch.
	CategoryComposite Category = "composite"

	// CategoryUnclassified marks requests no keyword set matched. They still
	// dispatch; the routing rules make their own match.
	CategoryUnclassified Category = "unclassified"
)

// Flag names derived from request text. The orchestrator reads them to decide
// which optional follow-up dispatches to attach to a single-domain response.
const (
	FlagNeedsForecasting          = "needs_forecasting"
	FlagNeedsSupplierAdvice       = "needs_supplier_recommendations"
	FlagNeedsInventoryIntegration = "needs_inventory_integration"
	FlagNeedsLogistics            = "needs_logistics"
)

// Intent is the classification outcome for one request.
type Intent struct {
	// Category is the coarse domain classification.
	Category Category `json:"category"`

	// Flags marks optional concerns detected in the text.
	Flags map[string]bool `json:"flags"`
}

// Has reports whether the named flag was detected.
func (i Intent) Has(flag string) bool { return i.Flags[flag] }

// Composite reports whether the request needs the collaboration pipeline.
func (i Intent) Composite() bool { return i.Category == CategoryComposite }

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	// Inventory, Forecasting, Sourcing and Composite override the built-in
	// keyword sets. Empty slices keep the defaults.
	Inventory   []string
	Forecasting []string
	Sourcing    []string
	Composite   []string
}

// Classifier maps request text onto a Category by keyword matching. Matching
// is case-insensitive substring containment. Domains are checked in a fixed
// order (inventory, forecasting, sourcing) and the first match wins;
// secondary domains mentioned in the text surface as flags on the winning
// category. Only a composite keyword escalates to CategoryComposite.
type Classifier struct {
	inventory   []string
	forecasting []string
	sourcing    []string
	composite   []string
}

// NewClassifier constructs a classifier with the default supply chain keyword
// sets.
func NewClassifier(optFns ...func(o *ClassifierOptions)) *Classifier {
	opts := ClassifierOptions{
		Inventory:   []string{"inventory", "stock", "reorder", "low stock", "out of stock"},
		Forecasting: []string{"forecast", "predict", "demand", "trend", "seasonal"},
		Sourcing:    []string{"supplier", "vendor", "procurement", "cost", "performance"},
		Composite:   []string{"optimize", "analyze", "comprehensive", "supply chain", "strategy"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{
		inventory:   opts.Inventory,
		forecasting: opts.Forecasting,
		sourcing:    opts.Sourcing,
		composite:   opts.Composite,
	}
}

// Classify evaluates a request and returns its intent. The flags are tied to
// the matched domain: an inventory match checks for forecasting and supplier
// needs, a forecasting match for inventory integration, a sourcing match for
// logistics.
func (c *Classifier) Classify(req *core.TaskRequest) Intent {
	text := strings.ToLower(req.Input)
	flags := map[string]bool{}

	category := CategoryUnclassified
	switch {
	case containsAny(text, c.inventory...):
		category = CategoryInventory
		flags[FlagNeedsForecasting] = containsAny(text, "forecast", "predict")
		flags[FlagNeedsSupplierAdvice] = containsAny(text, "supplier", "recommend")
	case containsAny(text, c.forecasting...):
		category = CategoryForecasting
		flags[FlagNeedsInventoryIntegration] = containsAny(text, "inventory", "stock")
	case containsAny(text, c.sourcing...):
		category = CategorySourcing
		flags[FlagNeedsLogistics] = containsAny(text, "shipping", "logistics")
	}

	// A composite keyword overrides the domain but keeps its flags.
	if containsAny(text, c.composite...) {
		category = CategoryComposite
	}

	return Intent{Category: category, Flags: flags}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
