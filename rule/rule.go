package rule

// Rule is a declarative routing entry: when its predicate matches a request,
// the rule contributes its required capability tags to the routing union.
// Rules are evaluated independently per request in declaration order; a
// request may satisfy several rules and thereby recruit handlers from several
// capability domains.
type Rule struct {
	// Name labels the rule for logs and diagnostics.
	Name string

	// Predicate gates the rule.
	Predicate Predicate

	// RequiredCapabilities are the tags contributed when the rule matches.
	RequiredCapabilities []string

	// Priority is declarative metadata; declaration order remains the
	// tie-break when multiple rules match.
	Priority int
}

// DefaultRules returns the built-in routing table for the supply chain
// domain.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:                 "inventory",
			Predicate:            Keywords("inventory", "stock", "reorder", "warehouse"),
			RequiredCapabilities: []string{"inventory_management"},
			Priority:             1,
		},
		{
			Name:                 "forecasting",
			Predicate:            Keywords("forecast", "predict", "demand", "trend", "seasonal"),
			RequiredCapabilities: []string{"demand_forecasting"},
			Priority:             1,
		},
		{
			Name:                 "sourcing",
			Predicate:            Keywords("supplier", "vendor", "procurement", "sourcing"),
			RequiredCapabilities: []string{"supplier_sourcing"},
			Priority:             1,
		},
		{
			Name:                 "orders",
			Predicate:            Keywords("order", "purchase"),
			RequiredCapabilities: []string{"order_management"},
			Priority:             1,
		},
		{
			Name:                 "cost",
			Predicate:            Keywords("cost", "optimize"),
			RequiredCapabilities: []string{"cost_optimization"},
			Priority:             2,
		},
	}
}
