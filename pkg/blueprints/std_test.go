package blueprints_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aretw0/frame/internal/runtime"
	"github.com/aretw0/frame/pkg/adapters/memory"
	"github.com/aretw0/frame/pkg/blueprints"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/loader"
	"github.com/aretw0/frame/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, out *bytes.Buffer) *runtime.Engine {
	t.Helper()
	reg := registry.NewRegistry()
	blueprints.Register(reg, blueprints.WithOutput(out))

	l := loader.New(reg,
		loader.WithSource(domain.ProtocolMemory, memory.NewStore(blueprints.Manifests()...)),
		loader.WithDefaultProtocol(domain.ProtocolMemory),
	)
	return runtime.NewEngine(l)
}

func run(t *testing.T, eng *runtime.Engine, flow *runtime.Blueprint, input any) any {
	t.Helper()
	require.NoError(t, flow.Err())
	value := flow.Value()
	if input != nil {
		flow.Trigger(input)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, eng.Drain(ctx))

	got, err := value.Wait(ctx)
	require.NoError(t, err)
	return got
}

func TestManifestsCoverEveryImplementation(t *testing.T) {
	reg := registry.NewRegistry()
	blueprints.Register(reg)

	for _, m := range blueprints.Manifests() {
		assert.True(t, reg.Has(m.Impl), m.Impl)
		assert.NotEmpty(t, m.Description, m.Name)
	}
	assert.Len(t, reg.Names(), len(blueprints.Names()))
}

func TestStringBlueprints(t *testing.T) {
	var out bytes.Buffer
	eng := newEngine(t, &out)

	flow := eng.Blueprint("trim").
		To(eng.Blueprint("upper")).
		To(eng.Blueprint("format"), "<%s>").
		To(eng.Blueprint("print"), "out: ")

	got := run(t, eng, flow, "  hello ")
	assert.Equal(t, "<HELLO>", got)
	assert.Equal(t, "out: <HELLO>\n", out.String())
}

func TestJSONRoundTrip(t *testing.T) {
	eng := newEngine(t, &bytes.Buffer{})

	flow := eng.Blueprint("identity").
		To(eng.Blueprint("json")).
		To(eng.Blueprint("parse-json"))

	got := run(t, eng, flow, map[string]any{"n": 1})
	assert.Equal(t, map[string]any{"n": float64(1)}, got)
}

func TestStringOpRejectsNonStrings(t *testing.T) {
	var aborted error
	reg := registry.NewRegistry()
	blueprints.Register(reg)
	l := loader.New(reg,
		loader.WithSource(domain.ProtocolMemory, memory.NewStore(blueprints.Manifests()...)),
		loader.WithDefaultProtocol(domain.ProtocolMemory),
	)
	eng := runtime.NewEngine(l, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnFlowAbort: func(ctx context.Context, e *domain.FlowEvent) { aborted = e.Err },
	}))

	flow := eng.Blueprint("identity").To(eng.Blueprint("upper"))
	flow.Trigger(42)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, eng.Drain(ctx))
	assert.ErrorContains(t, aborted, "expected string, got int")
}

func TestDelay(t *testing.T) {
	eng := newEngine(t, &bytes.Buffer{})
	flow := eng.Blueprint("identity").To(eng.Blueprint("delay"), 20)

	start := time.Now()
	got := run(t, eng, flow, "late")
	assert.Equal(t, "late", got)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestEmitStartsFlow(t *testing.T) {
	var out bytes.Buffer
	eng := newEngine(t, &out)

	eng.Blueprint("identity").
		From(eng.Blueprint("emit"), "a", "b").
		To(eng.Blueprint("print"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, eng.Drain(ctx))
	assert.Equal(t, "a\nb\n", out.String())
}

func TestTickerEmitsCount(t *testing.T) {
	var got []any
	eng := newEngine(t, &bytes.Buffer{})

	eng.Blueprint("identity").
		From(eng.Blueprint("ticker"), 3, 5).
		To(func(v any) any { got = append(got, v); return v })

	// The ticker emits from its own goroutine, so drive the loop with Run.
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, eng.Run(ctx))
	assert.Equal(t, []any{0, 1, 2}, got)
}
