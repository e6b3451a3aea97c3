package middleware

import (
	"context"
	"maps"
	"regexp"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/ports"
)

// Mask replaces redacted metadata values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.ManifestStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks metadata values whose keys
// match any of the patterns before they reach the store.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ManifestStore) ports.ManifestStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, manifest *domain.Manifest) error {
	// The caller keeps its own metadata untouched.
	cloned := *manifest
	cloned.Metadata = maps.Clone(manifest.Metadata)
	m.mask(cloned.Metadata)

	return m.next.Save(ctx, &cloned)
}

func (m *piiMiddleware) Manifest(ctx context.Context, name string) (*domain.Manifest, error) {
	return m.next.Manifest(ctx, name)
}

func (m *piiMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) Watch(ctx context.Context) (<-chan string, error) {
	return watch(ctx, m.next)
}

func (m *piiMiddleware) mask(metadata map[string]string) {
	for k := range metadata {
		for _, re := range m.patterns {
			if re.MatchString(k) {
				metadata[k] = Mask
				break
			}
		}
	}
}
