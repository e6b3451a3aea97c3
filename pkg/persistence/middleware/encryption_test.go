package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/frame/pkg/adapters/memory"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/persistence/middleware"
	"github.com/aretw0/frame/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	original := &domain.Manifest{
		Name:        "billing",
		Impl:        "std/format",
		Description: "Formats invoices.",
		Metadata:    map[string]string{"api_token": "my-secret-sauce"},
	}

	if err := secureStore.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlyingStore.Manifest(ctx, "billing")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.Impl != "" {
		t.Fatalf("Expected impl to be hidden, found: %v", stored.Impl)
	}
	if val, ok := stored.Metadata["api_token"]; ok {
		t.Fatalf("Expected secret to be hidden, found: %v", val)
	}
	if _, ok := stored.Metadata[middleware.EnvelopeKey]; !ok {
		t.Fatal("Expected __encrypted__ field in metadata")
	}

	loaded, err := secureStore.Manifest(ctx, "billing")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	assert.Equal(t, original, loaded)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	original := &domain.Manifest{Name: "rotating", Impl: "std/upper"}

	if err := secureStoreOld.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Manifest(ctx, "rotating")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.Impl != "std/upper" {
		t.Errorf("Decryption with fallback key failed")
	}

	// Re-saving seals with the new key.
	loaded.Impl = "std/lower"
	if err := secureStoreNew.Save(ctx, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	_, err = secureStoreOld.Manifest(ctx, "rotating")
	if err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainManifest(t *testing.T) {
	underlyingStore := memory.NewStore(domain.Manifest{Name: "plain", Impl: "std/upper"})
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	_, err := secureStore.Manifest(context.Background(), "plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing encrypted data envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestChain(t *testing.T) {
	key := generateKey(t)
	underlyingStore := memory.NewStore()
	store := middleware.Chain(underlyingStore,
		middleware.NewPIIMiddleware([]string{"token"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Manifest{
		Name:     "chained",
		Impl:     "std/upper",
		Metadata: map[string]string{"token": "abc", "team": "core"},
	}))

	loaded, err := store.Manifest(ctx, "chained")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Metadata["token"], "masked before sealing")
	assert.Equal(t, "core", loaded.Metadata["team"])

	t.Run("Contract", func(t *testing.T) {
		ports.RunManifestStoreContract(t, store)
	})
}
