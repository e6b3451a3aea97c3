package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// Source adapts a Loam repository of manifest documents to ports.ManifestSource.
// Documents are Markdown with frontmatter, JSON or YAML; the body of a
// Markdown document is used as the description when none is declared.
type Source struct {
	Repo *loam.TypedRepository[ManifestMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[ManifestMetadata]) *Source {
	return &Source{
		Repo: repo,
	}
}

// Manifest returns the manifest whose normalized id matches name.
func (s *Source) Manifest(ctx context.Context, name string) (*domain.Manifest, error) {
	want := domain.ParseRef(name).Name
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	for _, doc := range docs {
		if manifestID(doc.ID, doc.Data) != want {
			continue
		}
		return toManifest(want, doc.Data, doc.Content)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
}

// List lists the normalized ids of every manifest in the repository.
func (s *Source) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		id := manifestID(doc.ID, doc.Data)

		// Collision Detection
		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: blueprint '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

// Watch implements ports.Watchable.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- domain.ParseRef(trimExtension(evt.ID)).Name:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// manifestID prefers the declared name and falls back to the document path.
func manifestID(docID string, meta ManifestMetadata) string {
	raw := meta.Name
	if raw == "" {
		raw = docID
	}
	return domain.ParseRef(trimExtension(raw)).Name
}

func toManifest(id string, meta ManifestMetadata, content string) (*domain.Manifest, error) {
	m := &domain.Manifest{
		Name:        id,
		Impl:        meta.Impl,
		Description: meta.Description,
		Singleton:   meta.Singleton,
	}
	if m.Description == "" {
		m.Description = strings.TrimSpace(content)
	}
	if meta.Metadata != nil {
		m.Metadata = flattenMetadata(meta.Metadata)
	}

	if len(meta.Describe) > 0 {
		m.Describe = make(map[string][]domain.Param, len(meta.Describe))
		for phase, raw := range meta.Describe {
			params, err := decodeParams(raw)
			if err != nil {
				return nil, fmt.Errorf("describe.%s of %s: %w", phase, id, err)
			}
			m.Describe[phase] = params
		}
	}
	return m, nil
}

// decodeParams accepts bare names and inline param maps.
func decodeParams(raw []any) ([]domain.Param, error) {
	params := make([]domain.Param, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			params = append(params, domain.Param{Name: v})
		case map[string]any, map[any]any:
			var p domain.Param
			if err := mapstructure.Decode(v, &p); err != nil {
				return nil, fmt.Errorf("failed to decode inline param: %w", err)
			}
			if p.Name == "" {
				return nil, fmt.Errorf("inline param missing name")
			}
			params = append(params, p)
		default:
			return nil, fmt.Errorf("invalid param definition type: %T", v)
		}
	}
	return params, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// flattenMetadata converts a nested map[string]any into a flat map[string]string
// using dot notation for keys.
func flattenMetadata(src map[string]any) map[string]string {
	res := make(map[string]string)
	var visit func(prefix string, v any)

	visit = func(prefix string, v any) {
		join := func(k string) string {
			if prefix == "" {
				return k
			}
			return prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			for k, sub := range val {
				visit(join(k), sub)
			}
		case map[any]any: // YAML often decodes to this
			for k, sub := range val {
				visit(join(fmt.Sprint(k)), sub)
			}
		default:
			res[prefix] = fmt.Sprint(val)
		}
	}

	visit("", src)
	return res
}
