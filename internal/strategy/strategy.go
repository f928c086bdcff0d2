// Package strategy defines the decision-rule contract evaluated once per bar
// by the backtest loop, and provides a Registry for looking up rule
// implementations by name.
package strategy

import (
	"sort"

	"saturn/internal/domain"
	"saturn/internal/indicator"
)

// Strategy is a pure decision rule. Evaluate must depend only on its inputs
// and the fixed parameters supplied at construction, with no hidden state,
// so that identical runs produce identical decisions.
//
// Implementations must return a HOLD decision whenever any indicator value
// they consult is undefined.
type Strategy interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Evaluate inspects the bar's indicator snapshot, the day's sentiment
	// vote sum, and the current position, and returns a trading decision.
	Evaluate(snap indicator.Snapshot, sentiment int, pos domain.Position) domain.Decision
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates
// whether the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
