package ports

import (
	"context"

	"github.com/aretw0/frame/pkg/domain"
)

// Loader defines how the engine retrieves blueprint definitions.
// The engine calls Resolve off its loop and posts the outcome back, so
// implementations may block on I/O.
type Loader interface {
	Resolve(ctx context.Context, ref domain.Ref) (*domain.Definition, error)
}

// ManifestSource reads blueprint manifests.
type ManifestSource interface {
	// Manifest returns the manifest stored under name, or an error wrapping domain.ErrNotFound.
	Manifest(ctx context.Context, name string) (*domain.Manifest, error)

	// List returns the names of every manifest available in the source.
	List(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used to invalidate cached definitions during development.
type Watchable interface {
	// Watch returns a channel carrying the name of each changed manifest.
	Watch(ctx context.Context) (<-chan string, error)
}

// Validator checks a definition before the engine accepts it.
type Validator interface {
	Validate(def *domain.Definition) (*domain.Definition, error)
}

// ParamMapper maps positional arguments onto a phase's declared parameters.
type ParamMapper interface {
	Destructure(params []domain.Param, args []any) (domain.Props, error)
}
