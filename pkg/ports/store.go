package ports

import (
	"context"

	"github.com/aretw0/frame/pkg/domain"
)

// ManifestStore is a writable ManifestSource (e.g. Redis or memory).
type ManifestStore interface {
	ManifestSource

	// Save creates or replaces the manifest stored under m.Name.
	Save(ctx context.Context, m *domain.Manifest) error

	// Delete removes a manifest. Deleting a missing manifest is not an error.
	Delete(ctx context.Context, name string) error
}
