package connector

import (
	"fmt"

	"ArticleHunter/internal/ports"
)

// Spec describes one configured source: its store name, connector kind and free-form options.
type Spec struct {
	Name    string
	Kind    string
	Options map[string]string
}

// Factory builds a connector for a spec.
type Factory func(spec Spec) (ports.Connector, error)

// Registry keeps a mapping from connector kinds to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a factory.
func (r *Registry) Register(kind string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[kind] = factory
}

// Resolve builds the connector for spec or fails if its kind is absent.
func (r *Registry) Resolve(spec Spec) (ports.Connector, error) {
	factory, ok := r.factories[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("connector kind %s is not registered", spec.Kind)
	}
	conn, err := factory(spec)
	if err != nil {
		return nil, fmt.Errorf("build connector %s: %w", spec.Name, err)
	}
	return conn, nil
}

// Build resolves every spec in order and stops at the first failure.
func (r *Registry) Build(specs []Spec) ([]ports.Connector, error) {
	out := make([]ports.Connector, 0, len(specs))
	for _, spec := range specs {
		conn, err := r.Resolve(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, conn)
	}
	return out, nil
}
