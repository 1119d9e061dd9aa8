package auth

import (
	"fmt"
	"maps"
	"slices"
)

// RegistryBuilder collects strategies during startup.
type RegistryBuilder struct {
	strategies map[Method]Strategy
}

func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{strategies: make(map[Method]Strategy)}
}

// Register binds s to m, replacing any earlier binding.
func (b *RegistryBuilder) Register(m Method, s Strategy) *RegistryBuilder {
	b.strategies[m] = s
	return b
}

// Build freezes the registered strategies. Later calls to Register do not affect
// the returned Registry.
func (b *RegistryBuilder) Build() *Registry {
	return &Registry{strategies: maps.Clone(b.strategies)}
}

// Registry maps methods to strategies. It is immutable and safe for concurrent use.
type Registry struct {
	strategies map[Method]Strategy
}

func (r *Registry) Lookup(m Method) (Strategy, bool) {
	s, ok := r.strategies[m]
	return s, ok
}

// Strategy returns ErrMethodNotSupported when nothing is registered for m.
func (r *Registry) Strategy(m Method) (Strategy, error) {
	s, ok := r.Lookup(m)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotSupported, m)
	}
	return s, nil
}

// Methods lists the registered methods in sorted order.
func (r *Registry) Methods() []Method {
	return slices.Sorted(maps.Keys(r.strategies))
}
