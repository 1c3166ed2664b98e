package rule

import (
	"sort"
	"sync"

	"github.com/hupe1980/supplymesh/core"
	"github.com/hupe1980/supplymesh/logging"
	"github.com/hupe1980/supplymesh/registry"
)

// RouterOptions configures a Router.
type RouterOptions struct {
	// Rules is the initial routing table. Defaults to DefaultRules.
	Rules []Rule

	// Logger receives routing decisions at debug level. Defaults to NoOp.
	Logger logging.Logger
}

// Router matches requests against the rule table and ranks eligible handlers.
// Ranking is most-reliable-first: success rate descending, then mean response
// time ascending, then registration order.
type Router struct {
	mu       sync.RWMutex
	rules    []Rule
	registry *registry.Registry
	logger   logging.Logger
}

// NewRouter constructs a router over the given registry.
func NewRouter(reg *registry.Registry, optFns ...func(o *RouterOptions)) *Router {
	opts := RouterOptions{Rules: DefaultRules(), Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Router{rules: opts.Rules, registry: reg, logger: opts.Logger}
}

// AddRule appends a rule to the table. Declaration order is preserved.
func (r *Router) AddRule(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule)
}

// Rules returns a copy of the current rule table.
func (r *Router) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules := make([]Rule, len(r.rules))
	copy(rules, r.rules)
	return rules
}

// ContributedTags evaluates every rule against the request and unions the
// required capability tags of all matching rules with any tags the request
// itself pins. Returned in first-contribution order.
func (r *Router) ContributedTags(req *core.TaskRequest) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var tags []string
	add := func(tag string) {
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, rule := range r.rules {
		if rule.Predicate == nil || !rule.Predicate.Matches(req) {
			continue
		}
		for _, tag := range rule.RequiredCapabilities {
			add(tag)
		}
	}
	for _, tag := range req.RequiredCapabilities {
		add(tag)
	}
	return tags
}

// Route returns the ranked candidate list for the request: every active
// handler exposing at least one contributed capability tag, sorted by
// (success_rate desc, mean_response_time asc, registration order). An empty
// list means routing failed; the dispatcher reports it.
func (r *Router) Route(req *core.TaskRequest) []*core.HandlerRegistration {
	tags := r.ContributedTags(req)
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var candidates []*core.HandlerRegistration
	for _, tag := range tags {
		for _, reg := range r.registry.FindByCapability(tag) {
			if _, dup := seen[reg.ID()]; dup {
				continue
			}
			seen[reg.ID()] = struct{}{}
			if reg.Status() == core.StatusInactive {
				continue
			}
			candidates = append(candidates, reg)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i], candidates[j]
		if ri.SuccessRate() != rj.SuccessRate() {
			return ri.SuccessRate() > rj.SuccessRate()
		}
		if ri.MeanResponseTime() != rj.MeanResponseTime() {
			return ri.MeanResponseTime() < rj.MeanResponseTime()
		}
		return ri.Seq() < rj.Seq()
	})

	r.logger.Debug("routed request", "task_id", req.ID, "tags", len(tags), "candidates", len(candidates))
	return candidates
}
