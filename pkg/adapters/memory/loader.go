package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/frame/pkg/domain"
)

// Loader implements ports.Loader using an in-memory map of definitions.
// It is the "mem" protocol and the usual loader in tests.
type Loader struct {
	mu   sync.RWMutex
	defs map[string]*domain.Definition
}

// NewLoader creates a Loader holding the given definitions.
func NewLoader(defs ...*domain.Definition) (*Loader, error) {
	l := &Loader{defs: make(map[string]*domain.Definition)}
	for _, def := range defs {
		if err := l.Add(def); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add registers or replaces a definition under its normalized name.
func (l *Loader) Add(def *domain.Definition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("definition missing name")
	}
	name := domain.ParseRef(def.Name).Name

	l.mu.Lock()
	defer l.mu.Unlock()
	l.defs[name] = def
	return nil
}

// Resolve returns the definition registered under ref.Name. The protocol is ignored.
func (l *Loader) Resolve(ctx context.Context, ref domain.Ref) (*domain.Definition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	def, ok := l.defs[ref.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, ref.Name)
	}
	return def, nil
}

// Names returns all registered names.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.defs))
	for k := range l.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys
}
