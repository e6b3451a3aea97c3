package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunManifestStoreContract runs a suite of tests to verify that a ManifestStore implementation
// adheres to the defined interface contract.
func RunManifestStoreContract(t *testing.T, store ManifestStore) {
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		m := &domain.Manifest{
			Name: name,
			Impl: "std/upper",
			Describe: map[string][]domain.Param{
				"in": {{Name: "prefix", Type: "string"}},
			},
		}

		require.NoError(t, store.Save(ctx, m), "Save should not return error")

		loaded, err := store.Manifest(ctx, name)
		require.NoError(t, err, "Manifest should not return error")
		assert.Equal(t, m.Impl, loaded.Impl)
		require.Len(t, loaded.Describe["in"], 1)
		assert.Equal(t, "prefix", loaded.Describe["in"][0].Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Manifest(ctx, "non-existent-blueprint")
		assert.True(t, errors.Is(err, domain.ErrNotFound), "expected ErrNotFound, got %v", err)
	})

	t.Run("List", func(t *testing.T) {
		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, name)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, name))
		_, err := store.Manifest(ctx, name)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, names, name)

		assert.NoError(t, store.Delete(ctx, name), "deleting twice should be a no-op")
	})
}
