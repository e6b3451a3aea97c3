package frame_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/frame"
	"github.com/aretw0/frame/pkg/adapters/memory"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, eng *frame.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, eng.Drain(ctx))
}

func TestFacade_Integration(t *testing.T) {
	repoPath := t.TempDir()
	shout := []byte(`---
impl: std/upper
---
Upper-cases its input.`)
	if err := os.WriteFile(filepath.Join(repoPath, "shout.md"), shout, 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	eng, err := frame.New(repoPath, frame.WithOutput(&out))
	if err != nil {
		t.Fatalf("Failed to initialize engine with path %s: %v", repoPath, err)
	}
	if eng.Name != filepath.Base(repoPath) {
		t.Errorf("Expected name %q, got %q", filepath.Base(repoPath), eng.Name)
	}

	// "shout" comes from the repository, "mem://print" from the std catalog.
	flow := eng.Blueprint("shout").To(eng.Blueprint("mem://print"), "> ")
	require.NoError(t, flow.Err())

	value := flow.Value()
	flow.Trigger("hello")
	drain(t, eng)

	got, err := value.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HELLO", got)
	assert.Equal(t, "> HELLO\n", out.String())
}

func TestFacade_DefaultProtocol(t *testing.T) {
	t.Run("Memory when no repository", func(t *testing.T) {
		eng, err := frame.New("")
		require.NoError(t, err)

		flow := eng.Blueprint("upper")
		value := flow.To(eng.Blueprint("trim")).Value()
		flow.Trigger(" a ")
		drain(t, eng)

		got, err := value.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "A", got)
	})

	t.Run("Unknown protocol fails the load", func(t *testing.T) {
		var loadErr error
		eng, err := frame.New("", frame.WithLifecycleHooks(domain.LifecycleHooks{
			OnLoad: func(ctx context.Context, e *domain.FlowEvent) {
				loadErr = e.Err
			},
		}))
		require.NoError(t, err)

		eng.Blueprint("redis://upper")
		drain(t, eng)
		assert.ErrorIs(t, loadErr, domain.ErrUnsupportedProtocol)
	})
}

func TestFacade_CustomSource(t *testing.T) {
	store := memory.NewStore(domain.Manifest{Name: "loud", Impl: "std/upper"})
	eng, err := frame.New("",
		frame.WithSource("team", store),
		frame.WithDefaultProtocol("team"),
	)
	require.NoError(t, err)
	assert.NotNil(t, eng.Catalog())
	assert.Contains(t, eng.Catalog().Protocols(), "team")

	flow := eng.Blueprint("loud")
	value := flow.To(eng.Blueprint("mem://identity")).Value()
	flow.Trigger("ok")
	drain(t, eng)

	got, err := value.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", got)
}

func TestFacade_WithLoaderSkipsCatalog(t *testing.T) {
	l, err := memory.NewLoader(&domain.Definition{
		Name: "double",
		In: func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
			return domain.Value(data.(int) * 2)
		},
	})
	require.NoError(t, err)

	eng, err := frame.New("", frame.WithLoader(l))
	require.NoError(t, err)
	assert.Nil(t, eng.Catalog())
	assert.Nil(t, eng.Registry())

	flow := eng.Blueprint("double").To(eng.Blueprint("double").New())
	value := flow.Value()
	flow.Trigger(3)
	drain(t, eng)

	got, err := value.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, got)

	_, err = eng.Watch(context.Background())
	assert.Error(t, err, "memory loader cannot be watched")
}

func TestFacade_WirePipelines(t *testing.T) {
	var out bytes.Buffer
	eng, err := frame.New("", frame.WithOutput(&out))
	require.NoError(t, err)

	pipelines, err := dsl.Parse([]byte(`
pipelines:
  - name: greet
    owner: identity
    steps:
      - from_value: world
      - to: format
        params: ["hello %s"]
      - to: print
`))
	require.NoError(t, err)

	owners, err := eng.Wire(pipelines...)
	require.NoError(t, err)
	require.Len(t, owners, 1)

	drain(t, eng)
	assert.Equal(t, "hello world\n", out.String())

	snaps := eng.Snapshot()
	require.NotEmpty(t, snaps)
	var found bool
	for _, s := range snaps {
		if s.Name == "identity" && s.Instance {
			found = true
			assert.Len(t, s.Pipes, 3)
		}
	}
	assert.True(t, found, "identity working copy should be in the snapshot")
}
