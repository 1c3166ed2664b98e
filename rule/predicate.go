// Package rule implements the declarative routing layer: predicates over
// request text and tags, routing rules that contribute required capability
// tags, and the router that ranks eligible handlers by performance.
package rule

import (
	"regexp"
	"strings"

	"github.com/hupe1980/supplymesh/core"
)

// Predicate decides whether a routing rule applies to a request. The
// variants below (keyword containment, regex, AND/OR composition) keep the
// rule table extensible without new code paths.
type Predicate interface {
	Matches(req *core.TaskRequest) bool
}

// KeywordContains matches when the lowercased request text contains any of
// the keywords.
type KeywordContains struct {
	Keywords []string
}

// Matches implements Predicate.
func (p KeywordContains) Matches(req *core.TaskRequest) bool {
	input := strings.ToLower(req.Input)
	for _, kw := range p.Keywords {
		if strings.Contains(input, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Keywords is shorthand for a KeywordContains predicate.
func Keywords(kws ...string) Predicate { return KeywordContains{Keywords: kws} }

// Regex matches the request text against a compiled expression.
type Regex struct {
	expr *regexp.Regexp
}

// NewRegex compiles a regex predicate.
func NewRegex(pattern string) (Regex, error) {
	expr, err := regexp.Compile(pattern)
	if err != nil {
		return Regex{}, err
	}
	return Regex{expr: expr}, nil
}

// MustRegex compiles a regex predicate, panicking on an invalid pattern.
// Intended for static rule tables.
func MustRegex(pattern string) Regex {
	return Regex{expr: regexp.MustCompile(pattern)}
}

// Matches implements Predicate.
func (p Regex) Matches(req *core.TaskRequest) bool {
	if p.expr == nil {
		return false
	}
	return p.expr.MatchString(req.Input)
}

// And matches only when every child predicate matches.
type And []Predicate

// Matches implements Predicate.
func (p And) Matches(req *core.TaskRequest) bool {
	for _, child := range p {
		if !child.Matches(req) {
			return false
		}
	}
	return len(p) > 0
}

// Or matches when any child predicate matches.
type Or []Predicate

// Matches implements Predicate.
func (p Or) Matches(req *core.TaskRequest) bool {
	for _, child := range p {
		if child.Matches(req) {
			return true
		}
	}
	return false
}
