package alloc

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"shipalloc/core/units"
	"shipalloc/internal/errors"
)

// Registered strategy names
const (
	NameFirstAvailable    = "first_available"
	NameEqualDistribution = "equal_distribution"
)

// Options carries strategy construction parameters
type Options struct {
	// Threshold is the ideal fill ratio for threshold-based strategies
	Threshold decimal.Decimal

	// Units is the conversion registry strategies convert through
	Units *units.Registry
}

// Factory builds an allocator from options
type Factory func(opts Options) (Allocator, error)

// Registry holds the registered allocation strategies. Strategies are
// selected by name at flow-construction time, never by runtime type
// inspection.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty strategy registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a strategy factory; duplicate names are rejected
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.TypeConfig, "strategy already registered: %s", name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds the named strategy
func (r *Registry) Create(name string, opts Options) (Allocator, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.TypeConfig, "unknown allocation strategy: %s", name)
	}
	return factory(opts)
}

// Names returns the registered strategy names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with the reference strategies
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(NameFirstAvailable, func(opts Options) (Allocator, error) {
		return NewFirstAvailable(opts.Threshold, opts.Units)
	})
	_ = r.Register(NameEqualDistribution, func(opts Options) (Allocator, error) {
		return NewEqualDistribution(opts.Units), nil
	})
	return r
}
