package core

// Capability declares a named unit of functionality a handler provides. It is
// the routing currency of the system: rules contribute capability tags and the
// registry resolves them back to handlers.
//
// A Capability is immutable once declared and owned by the handler that
// declares it.
type Capability struct {
	// Name is the capability tag used for routing (e.g. "inventory_management").
	Name string `json:"name"`

	// Description is a human readable summary of what the capability does.
	Description string `json:"description"`

	// InputKinds lists the context payload kinds the capability consumes
	// (e.g. "inventory_data", "historical_demand").
	InputKinds []string `json:"input_kinds,omitempty"`

	// OutputKinds lists the result payload kinds the capability produces.
	OutputKinds []string `json:"output_kinds,omitempty"`

	// Keywords seed keyword based routing rules for this capability.
	Keywords []string `json:"keywords,omitempty"`

	// Priority weights this capability when a handler exposes several.
	// Higher is more significant.
	Priority int `json:"priority,omitempty"`
}
