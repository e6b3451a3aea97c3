// Package loader resolves blueprint references into definitions. It selects a
// manifest source by protocol, binds the manifest to a registered
// implementation and caches the result. Concurrent resolutions of one name
// share a single lookup.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// Binder turns a manifest into a runnable definition. *registry.Registry is one.
type Binder interface {
	Bind(m *domain.Manifest) (*domain.Definition, error)
}

// Loader implements ports.Loader on top of protocol-keyed manifest sources.
type Loader struct {
	binder          Binder
	sources         map[string]ports.ManifestSource
	defaultProtocol string
	logger          *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]*domain.Definition
}

// Option configures the Loader.
type Option func(*Loader)

// WithSource serves protocol from src.
func WithSource(protocol string, src ports.ManifestSource) Option {
	return func(l *Loader) {
		l.sources[protocol] = src
	}
}

// WithDefaultProtocol sets the protocol used by references without a prefix.
func WithDefaultProtocol(protocol string) Option {
	return func(l *Loader) {
		l.defaultProtocol = protocol
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Loader. The default protocol is "file".
func New(binder Binder, opts ...Option) *Loader {
	l := &Loader{
		binder:          binder,
		sources:         make(map[string]ports.ManifestSource),
		defaultProtocol: domain.ProtocolFile,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:           make(map[string]*domain.Definition),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve implements ports.Loader.
func (l *Loader) Resolve(ctx context.Context, ref domain.Ref) (*domain.Definition, error) {
	ref = l.normalize(ref)
	key := ref.String()

	l.mu.RLock()
	def, ok := l.cache[key]
	l.mu.RUnlock()
	if ok {
		return def, nil
	}

	v, err, shared := l.group.Do(key, func() (any, error) {
		return l.load(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.logger.Debug("blueprint resolution shared", "blueprint", key)
	}
	return v.(*domain.Definition), nil
}

func (l *Loader) load(ctx context.Context, ref domain.Ref) (*domain.Definition, error) {
	src, ok := l.sources[ref.Protocol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProtocol, ref.Protocol)
	}

	m, err := src.Manifest(ctx, ref.Name)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = ref.Name
	}

	def, err := l.binder.Bind(m)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", ref, err)
	}

	l.mu.Lock()
	l.cache[ref.String()] = def
	l.mu.Unlock()

	l.logger.Debug("blueprint resolved", "blueprint", ref.String(), "impl", m.Impl)
	return def, nil
}

// Invalidate drops the cached definition for name.
func (l *Loader) Invalidate(name string) {
	key := l.normalize(domain.ParseRef(name)).String()
	l.mu.Lock()
	delete(l.cache, key)
	l.mu.Unlock()
	l.group.Forget(key)
}

// Protocols lists the configured protocols in sorted order.
func (l *Loader) Protocols() []string {
	out := make([]string, 0, len(l.sources))
	for p := range l.sources {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Manifest reads the raw manifest behind ref without binding it.
func (l *Loader) Manifest(ctx context.Context, ref domain.Ref) (*domain.Manifest, error) {
	ref = l.normalize(ref)
	src, ok := l.sources[ref.Protocol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProtocol, ref.Protocol)
	}
	return src.Manifest(ctx, ref.Name)
}

// Source returns the manifest source serving protocol.
func (l *Loader) Source(protocol string) (ports.ManifestSource, bool) {
	src, ok := l.sources[protocol]
	return src, ok
}

// Watch invalidates cached definitions as watchable sources report changes.
// The returned channel carries each invalidated reference and closes once
// every watcher has stopped.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	out := make(chan string, 1)
	var wg sync.WaitGroup

	for protocol, src := range l.sources {
		w, ok := src.(ports.Watchable)
		if !ok {
			continue
		}
		changes, err := w.Watch(ctx)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", protocol, err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range changes {
				ref := domain.Ref{Protocol: protocol, Name: name}
				l.Invalidate(ref.String())
				l.logger.Info("blueprint changed", "blueprint", ref.String())
				select {
				case out <- ref.String():
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func (l *Loader) normalize(ref domain.Ref) domain.Ref {
	if ref.Protocol == "" {
		ref.Protocol = l.defaultProtocol
	}
	return ref
}
