package rotation

// Registry maps a StrategyType tag to the Strategy instance handling it.
// The driver constructs one Registry per process and shares it read-only
// across concurrent invocations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds a Registry from a set of strategies, keyed by each
// strategy's own StrategyType().
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.StrategyType()] = s
	}
	return r
}

// Lookup returns the strategy registered under tag, or false if none is
// registered. A lookup miss for a configured resource is a per-resource
// skip at the driver level, not a fatal error.
func (r *Registry) Lookup(tag string) (Strategy, bool) {
	s, ok := r.strategies[tag]
	return s, ok
}

// Map returns the tag-to-strategy mapping suitable for OperationContext.Rotators.
// The returned map must be treated as read-only.
func (r *Registry) Map() map[string]Strategy {
	return r.strategies
}
