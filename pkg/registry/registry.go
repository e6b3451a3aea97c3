package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/frame/pkg/domain"
)

// Implementation holds the Go handlers behind a blueprint manifest.
// Describe is used when the manifest does not declare its own.
type Implementation struct {
	Describe domain.Describe
	Init     domain.InitFunc
	In       domain.InputFunc
	On       domain.EventFunc
}

// Registry manages the available implementations.
type Registry struct {
	mu    sync.RWMutex
	impls map[string]Implementation
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		impls: make(map[string]Implementation),
	}
}

// Register adds an implementation to the registry.
// If an implementation with the same name exists, it is overwritten.
func (r *Registry) Register(name string, impl Implementation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.impls[normalize(name)] = impl
}

// Has reports whether an implementation is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.impls[normalize(name)]
	return ok
}

// Names lists the registered implementation names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.impls))
	for name := range r.impls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind looks up the manifest's implementation and returns the resulting definition.
// Returns an error if the implementation is not found.
func (r *Registry) Bind(m *domain.Manifest) (*domain.Definition, error) {
	r.mu.RLock()
	impl, ok := r.impls[normalize(m.Impl)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("implementation not found: %s", m.Impl)
	}

	describe := m.PhaseDescribe()
	if describe == nil {
		describe = impl.Describe
	}

	return &domain.Definition{
		Name:      m.Name,
		Describe:  describe,
		Init:      impl.Init,
		In:        impl.In,
		On:        impl.On,
		Singleton: m.Singleton,
	}, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
