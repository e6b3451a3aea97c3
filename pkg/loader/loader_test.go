package loader_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/frame/pkg/adapters/memory"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/loader"
	"github.com/aretw0/frame/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	reg.Register("std/identity", registry.Implementation{
		In: func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
			return domain.Value(data)
		},
	})
	return reg
}

// countingSource wraps a store and counts Manifest calls, optionally blocking them.
type countingSource struct {
	*memory.Store
	calls atomic.Int32
	gate  chan struct{}
}

func (c *countingSource) Manifest(ctx context.Context, name string) (*domain.Manifest, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.Store.Manifest(ctx, name)
}

func TestLoader_Resolve(t *testing.T) {
	store := memory.NewStore(domain.Manifest{Name: "echo", Impl: "std/identity", Singleton: true})
	l := loader.New(newRegistry(),
		loader.WithSource(domain.ProtocolMemory, store),
		loader.WithDefaultProtocol(domain.ProtocolMemory),
	)
	ctx := context.Background()

	t.Run("Default protocol", func(t *testing.T) {
		def, err := l.Resolve(ctx, domain.ParseRef("  ECHO "))
		require.NoError(t, err)
		assert.Equal(t, "echo", def.Name)
		assert.True(t, def.Singleton)
		assert.NotNil(t, def.In)
	})

	t.Run("Explicit protocol", func(t *testing.T) {
		_, err := l.Resolve(ctx, domain.ParseRef("mem://echo"))
		assert.NoError(t, err)
	})

	t.Run("Unsupported protocol", func(t *testing.T) {
		_, err := l.Resolve(ctx, domain.ParseRef("ftp://echo"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedProtocol)
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := l.Resolve(ctx, domain.ParseRef("missing"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Unknown implementation", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.Manifest{Name: "ghost", Impl: "std/ghost"}))
		_, err := l.Resolve(ctx, domain.ParseRef("ghost"))
		assert.ErrorContains(t, err, "implementation not found")
	})

	assert.Equal(t, []string{domain.ProtocolMemory}, l.Protocols())
}

func TestLoader_CachesAndInvalidates(t *testing.T) {
	src := &countingSource{Store: memory.NewStore(domain.Manifest{Name: "echo", Impl: "std/identity"})}
	l := loader.New(newRegistry(), loader.WithSource(domain.ProtocolFile, src))
	ctx := context.Background()

	first, err := l.Resolve(ctx, domain.ParseRef("echo"))
	require.NoError(t, err)
	second, err := l.Resolve(ctx, domain.ParseRef("file://echo"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, src.calls.Load())

	l.Invalidate("echo")
	_, err = l.Resolve(ctx, domain.ParseRef("echo"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestLoader_CoalescesConcurrentResolutions(t *testing.T) {
	src := &countingSource{
		Store: memory.NewStore(domain.Manifest{Name: "echo", Impl: "std/identity"}),
		gate:  make(chan struct{}),
	}
	l := loader.New(newRegistry(), loader.WithSource(domain.ProtocolFile, src))

	var wg sync.WaitGroup
	results := make([]*domain.Definition, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			def, err := l.Resolve(context.Background(), domain.ParseRef("echo"))
			assert.NoError(t, err)
			results[i] = def
		}()
	}

	// Give every caller time to join the in-flight lookup before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.EqualValues(t, 1, src.calls.Load())
	for _, def := range results {
		assert.Same(t, results[0], def)
	}
}

// watchSource is a store that reports changes pushed by the test.
type watchSource struct {
	*memory.Store
	changes chan string
}

func (w *watchSource) Watch(ctx context.Context) (<-chan string, error) {
	return w.changes, nil
}

func TestLoader_WatchInvalidates(t *testing.T) {
	src := &watchSource{
		Store:   memory.NewStore(domain.Manifest{Name: "echo", Impl: "std/identity"}),
		changes: make(chan string),
	}
	l := loader.New(newRegistry(), loader.WithSource(domain.ProtocolFile, src))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before, err := l.Resolve(ctx, domain.ParseRef("echo"))
	require.NoError(t, err)

	events, err := l.Watch(ctx)
	require.NoError(t, err)

	src.changes <- "echo"
	select {
	case ref := <-events:
		assert.Equal(t, "file://echo", ref)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
	}

	after, err := l.Resolve(ctx, domain.ParseRef("echo"))
	require.NoError(t, err)
	assert.NotSame(t, before, after, "cache entry was dropped")

	close(src.changes)
	_, open := <-events
	assert.False(t, open)
}

func TestLoader_Manifest(t *testing.T) {
	store := memory.NewStore(domain.Manifest{Name: "ghost", Impl: "std/unregistered"})
	l := loader.New(newRegistry(),
		loader.WithSource(domain.ProtocolMemory, store),
		loader.WithDefaultProtocol(domain.ProtocolMemory),
	)
	ctx := context.Background()

	m, err := l.Manifest(ctx, domain.ParseRef("ghost"))
	require.NoError(t, err, "raw reads do not bind the implementation")
	assert.Equal(t, "std/unregistered", m.Impl)

	_, err = l.Manifest(ctx, domain.ParseRef("redis://ghost"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedProtocol)
}
