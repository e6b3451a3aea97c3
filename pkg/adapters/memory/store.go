package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/frame/pkg/domain"
)

// Store implements ports.ManifestStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Manifest
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with manifests.
func NewStore(seed ...domain.Manifest) *Store {
	s := &Store{
		data: make(map[string]*domain.Manifest),
	}
	for i := range seed {
		m := seed[i]
		s.data[domain.ParseRef(m.Name).Name] = clone(&m)
	}
	return s
}

// Save persists the manifest in memory.
func (s *Store) Save(ctx context.Context, m *domain.Manifest) error {
	if m == nil || m.Name == "" {
		return fmt.Errorf("manifest missing name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[domain.ParseRef(m.Name).Name] = clone(m)
	return nil
}

// Manifest retrieves a manifest from memory.
func (s *Store) Manifest(ctx context.Context, name string) (*domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[domain.ParseRef(name).Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	// Copy on read so callers can't mutate the stored manifest.
	return clone(m), nil
}

// Delete removes the manifest.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, domain.ParseRef(name).Name)
	return nil
}

// List returns the stored manifest names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func clone(m *domain.Manifest) *domain.Manifest {
	c := *m
	c.Metadata = maps.Clone(m.Metadata)
	if m.Describe != nil {
		c.Describe = make(map[string][]domain.Param, len(m.Describe))
		for phase, params := range m.Describe {
			c.Describe[phase] = slices.Clone(params)
		}
	}
	return &c
}
