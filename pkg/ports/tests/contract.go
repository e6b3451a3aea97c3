package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/ports"
)

// ManifestSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.ManifestSource.
// setupData maps each seeded name to the implementation its manifest declares.
func ManifestSourceContractTest(t *testing.T, source ports.ManifestSource, setupData map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Manifest_Success", func(t *testing.T) {
		for name, impl := range setupData {
			m, err := source.Manifest(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error getting manifest %s: %v", name, err)
			}
			if m.Name != name {
				t.Errorf("name mismatch: got %q, want %q", m.Name, name)
			}
			if m.Impl != impl {
				t.Errorf("impl mismatch for %s: got %q, want %q", name, m.Impl, impl)
			}
		}
	})

	t.Run("Manifest_NotFound", func(t *testing.T) {
		_, err := source.Manifest(ctx, "non-existent-blueprint")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for non-existent manifest, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		names, err := source.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing manifests: %v", err)
		}

		if len(names) != len(setupData) {
			t.Errorf("expected %d manifests, got %d", len(setupData), len(names))
		}

		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}

		for name := range setupData {
			if !lookup[name] {
				t.Errorf("manifest %s missing from list", name)
			}
		}
	})
}
