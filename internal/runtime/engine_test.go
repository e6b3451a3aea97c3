package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/frame/internal/runtime"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func define(t *testing.T, eng *runtime.Engine, def *domain.Definition) *runtime.Blueprint {
	t.Helper()
	bp, err := eng.Define(def)
	require.NoError(t, err)
	return bp
}

func drain(t *testing.T, eng *runtime.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, eng.Drain(ctx))
}

// recorder collects what each blueprint's In handler receives.
type recorder struct {
	mu   sync.Mutex
	seen map[string][]any
	on   map[string]int
}

func newRecorder() *recorder {
	return &recorder{seen: map[string][]any{}, on: map[string]int{}}
}

func (r *recorder) def(name string, out func(any) any) *domain.Definition {
	return &domain.Definition{
		Name: name,
		In: func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
			r.mu.Lock()
			r.seen[name] = append(r.seen[name], data)
			r.mu.Unlock()
			if out == nil {
				return domain.Value(data)
			}
			return domain.Value(out(data))
		},
		On: func(step domain.Step, props domain.Props) {
			r.mu.Lock()
			r.on[name]++
			r.mu.Unlock()
		},
	}
}

func (r *recorder) inputs(name string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.seen[name]...)
}

func (r *recorder) events(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on[name]
}

func TestEngine_ZeroPipesNeverBuild(t *testing.T) {
	builds := 0
	eng := runtime.NewEngine(nil, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnBuild: func(ctx context.Context, e *domain.FlowEvent) { builds++ },
	}))
	a := define(t, eng, newRecorder().def("a", nil))

	drain(t, eng)

	assert.Equal(t, 0, builds)
	assert.Equal(t, domain.StateLoaded, a.State(), "nothing asked for an instance yet")
}

func TestEngine_ChainReturnsLastValue(t *testing.T) {
	eng := runtime.NewEngine(nil)
	rec := newRecorder()
	a := define(t, eng, rec.def("a", nil))
	b := define(t, eng, rec.def("b", func(v any) any { return v.(int) + 1 }))
	c := define(t, eng, rec.def("c", func(any) any { return 42 }))

	flow := a.To(b).To(c)
	require.NoError(t, flow.Err())

	value := flow.Value()
	flow.Trigger(1)
	drain(t, eng)

	got, err := value.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, []any{1}, rec.inputs("a"), "step 0 is the owner itself")
	assert.Equal(t, []any{1}, rec.inputs("b"))
	assert.Equal(t, []any{2}, rec.inputs("c"))
}

func TestEngine_DebounceWindowBuildsOnce(t *testing.T) {
	builds := 0
	eng := runtime.NewEngine(nil,
		runtime.WithDebounce(20*time.Millisecond),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnBuild: func(ctx context.Context, e *domain.FlowEvent) { builds++ },
		}),
	)
	rec := newRecorder()
	a := define(t, eng, rec.def("a", nil))
	b := define(t, eng, rec.def("b", func(v any) any { return v.(int) + 1 }))
	c := define(t, eng, rec.def("c", func(any) any { return 42 }))

	flow := a.To(b).To(c)
	value := flow.Value()
	flow.Trigger(1)
	drain(t, eng)

	assert.Equal(t, 1, builds, "pipes registered inside one window share a build")
	got, err := value.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestEngine_TriggerWithoutPipesIsIgnored(t *testing.T) {
	ends := 0
	eng := runtime.NewEngine(nil, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnFlowEnd: func(ctx context.Context, e *domain.FlowEvent) { ends++ },
	}))
	rec := newRecorder()
	owner := define(t, eng, rec.def("owner", nil))
	leaf := define(t, eng, rec.def("leaf", nil))

	owner.To(leaf)
	drain(t, eng)

	value := leaf.Value()
	leaf.Trigger("x")
	drain(t, eng)

	assert.False(t, value.Settled(), "a blueprint without pipes has no flow to end")
	assert.Equal(t, 0, ends)
	assert.Empty(t, rec.inputs("owner"), "the owner flow is not resumed")
	assert.Empty(t, rec.inputs("leaf"))
}

func TestEngine_RedefineIsConfigurationError(t *testing.T) {
	eng := runtime.NewEngine(nil)
	def := &domain.Definition{Name: "a"}
	first := define(t, eng, def)

	t.Run("same definition", func(t *testing.T) {
		again, err := eng.Define(def)
		require.NoError(t, err)
		assert.Equal(t, first.ID(), again.ID())
	})

	t.Run("another definition", func(t *testing.T) {
		_, err := eng.Define(&domain.Definition{Name: "A"})
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.ErrorIs(t, err, domain.ErrAlreadyDefined)
		assert.Equal(t, "define", cfgErr.Op)
		assert.Equal(t, "a", cfgErr.Blueprint)
	})
}

func TestEngine_FromConstantStartsFlow(t *testing.T) {
	eng := runtime.NewEngine(nil)
	rec := newRecorder()
	a := define(t, eng, &domain.Definition{Name: "a"})
	b := define(t, eng, rec.def("b", nil))

	a.From("go").To(b)
	drain(t, eng)

	assert.Equal(t, []any{"go"}, rec.inputs("b"))
}

func TestEngine_FunctionAdapters(t *testing.T) {
	eng := runtime.NewEngine(nil)
	a := define(t, eng, &domain.Definition{Name: "a"})

	flow := a.
		To(func(v any) any { return v.(string) + "!" }).
		To(func(v any, props domain.Props) (any, error) { return v.(string) + props.Arg(0).(string), nil }, "?")

	value := flow.Value()
	flow.Trigger("hi")
	drain(t, eng)

	got, err := value.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hi!?", got)
}

func TestEngine_DeclarationOrder(t *testing.T) {
	var order []string
	eng := runtime.NewEngine(nil, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e *domain.FlowEvent) {
			order = append(order, e.Target)
		},
	}))
	rec := newRecorder()
	owner := define(t, eng, rec.def("owner", nil))
	x := define(t, eng, rec.def("x", nil))
	y := define(t, eng, rec.def("y", nil))
	z := define(t, eng, rec.def("z", nil))

	flow := owner.To(x).To(y).To(z)
	flow.Trigger("data")
	drain(t, eng)

	assert.Equal(t, []string{"owner", "x", "y", "z"}, order)
	snap := flow.Snapshot()
	assert.Equal(t, 4, snap.FlowLength)
	require.Len(t, snap.Pipes, 3)
	assert.Equal(t, "x", snap.Pipes[0].Target)
	assert.Equal(t, "z", snap.Pipes[2].Target)
}

func TestEngine_BuildIsIdempotentWhileProcessing(t *testing.T) {
	builds := 0
	eng := runtime.NewEngine(nil, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnBuild: func(ctx context.Context, e *domain.FlowEvent) { builds++ },
	}))

	var release domain.Callback
	slow := define(t, eng, &domain.Definition{
		Name: "slow",
		In: func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
			release = done
			return domain.Pending()
		},
	})
	rec := newRecorder()
	a := define(t, eng, rec.def("a", nil))
	late := define(t, eng, rec.def("late", nil))

	flow := a.To(slow)
	flow.Trigger(1)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, eng.Drain(ctx), context.DeadlineExceeded, "slow never signalled")
	assert.Equal(t, 1, builds)
	assert.Equal(t, domain.StateProcessing, flow.State())

	// A pipe added mid-flow must not rebuild until the flow finishes.
	flow.To(late)
	ctx2, cancel2 := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel2()
	_ = eng.Drain(ctx2)
	assert.Equal(t, 1, builds)

	require.NotNil(t, release)
	release(nil, "done")
	drain(t, eng)

	assert.Equal(t, 2, builds, "rebuilt once after the flow ended")
	assert.Empty(t, rec.inputs("late"))
}

func TestEngine_RejectedPromiseAbortsSilently(t *testing.T) {
	var aborts []error
	ends := 0
	eng := runtime.NewEngine(nil, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnFlowAbort: func(ctx context.Context, e *domain.FlowEvent) { aborts = append(aborts, e.Err) },
		OnFlowEnd:   func(ctx context.Context, e *domain.FlowEvent) { ends++ },
	}))
	rec := newRecorder()
	boom := errors.New("boom")

	a := define(t, eng, rec.def("a", nil))
	b := define(t, eng, &domain.Definition{
		Name: "b",
		In: func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
			p := domain.NewPromise()
			go p.Reject(boom)
			return domain.Await(p)
		},
	})
	parent := define(t, eng, rec.def("parent", nil))

	child := a.To(b)
	parent.To(a)
	value := child.Value()
	child.Trigger("x")
	drain(t, eng)

	require.Len(t, aborts, 1)
	var stepErr *domain.RuntimeStepError
	require.ErrorAs(t, aborts[0], &stepErr)
	assert.ErrorIs(t, stepErr, boom)
	assert.Equal(t, 1, stepErr.Step, "b sits at flow index 1")

	assert.False(t, value.Settled(), "error path leaves the value promise pending")
	assert.Equal(t, 0, ends)
	assert.Empty(t, rec.inputs("parent"), "parent flow is not resumed")
	assert.NotEqual(t, domain.StateProcessing, child.State())
}

func TestEngine_RejectOnErrorOption(t *testing.T) {
	eng := runtime.NewEngine(nil, runtime.WithRejectOnError(true))
	a := define(t, eng, &domain.Definition{Name: "a"})
	flow := a.To(func(any) (any, error) { return nil, errors.New("nope") })

	value := flow.Value()
	flow.Trigger(nil)
	drain(t, eng)

	require.True(t, value.Settled())
	_, err := value.Wait(context.Background())
	assert.ErrorContains(t, err, "nope")
}

func TestEngine_SubFlowResumesParent(t *testing.T) {
	eng := runtime.NewEngine(nil)
	rec := newRecorder()

	child := define(t, eng, rec.def("child", nil))
	worker := define(t, eng, rec.def("worker", func(v any) any { return v.(string) + "-worked" }))
	parent := define(t, eng, rec.def("parent", nil))
	sink := define(t, eng, rec.def("sink", nil))

	// The child owns a flow started by its own event source.
	child.From("go").To(worker)
	top := parent.From(child).To(sink)

	value := top.Value()
	drain(t, eng)

	assert.Equal(t, 0, rec.events("child"), "child.On must not be called by the parent")
	assert.Equal(t, []any{"go-worked"}, rec.inputs("parent"), "parent step 0 gets the child's final data")
	assert.Equal(t, []any{"go-worked"}, rec.inputs("sink"))

	got, err := value.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "go-worked", got)
}

func TestEngine_EventSourceWithoutFlowIsStarted(t *testing.T) {
	eng := runtime.NewEngine(nil)
	rec := newRecorder()
	ticker := define(t, eng, &domain.Definition{
		Name: "ticker",
		On: func(step domain.Step, props domain.Props) {
			for i := 0; i < props.Arg(0).(int); i++ {
				step.Out(i)
			}
		},
	})
	a := define(t, eng, &domain.Definition{Name: "a"})
	sink := define(t, eng, rec.def("sink", nil))

	a.From(ticker, 3).To(sink)
	drain(t, eng)

	assert.Equal(t, []any{0, 1, 2}, rec.inputs("sink"))
}

func TestEngine_CallbackAndDoubleSignal(t *testing.T) {
	eng := runtime.NewEngine(nil)
	rec := newRecorder()
	a := define(t, eng, &domain.Definition{Name: "a"})
	async := define(t, eng, &domain.Definition{
		Name: "async",
		In: func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
			go func() {
				time.Sleep(10 * time.Millisecond)
				done(nil, "first")
				step.Out("second")
			}()
			return domain.Pending()
		},
	})
	sink := define(t, eng, rec.def("sink", nil))

	flow := a.To(async).To(sink)
	flow.Trigger(nil)
	drain(t, eng)

	assert.Equal(t, []any{"first"}, rec.inputs("sink"))
}

func TestEngine_PanicBecomesStepError(t *testing.T) {
	var aborted error
	eng := runtime.NewEngine(nil, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnFlowAbort: func(ctx context.Context, e *domain.FlowEvent) { aborted = e.Err },
	}))
	a := define(t, eng, &domain.Definition{Name: "a"})
	flow := a.To(func(any) any { panic("kaboom") })
	flow.Trigger(nil)
	drain(t, eng)

	assert.ErrorContains(t, aborted, "kaboom")
}

func TestEngine_InitRunsOnceWithConstructionArgs(t *testing.T) {
	inits := 0
	var got domain.Props
	eng := runtime.NewEngine(nil)
	counter := define(t, eng, &domain.Definition{
		Name:     "counter",
		Describe: domain.Describe{domain.PhaseInit: {{Name: "start", Type: "int"}}},
		Init: func(props domain.Props, done func(error)) {
			inits++
			got = props
			done(nil)
		},
		In: func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
			return domain.Value(data)
		},
	})
	a := define(t, eng, &domain.Definition{Name: "a"})

	flow := a.To(counter.New(5))
	flow.Trigger(1)
	flow.Trigger(2)
	drain(t, eng)

	assert.Equal(t, 1, inits)
	assert.Equal(t, 5, got.Named["start"])
}

func TestEngine_InitFailureBlocksBuild(t *testing.T) {
	var initErr error
	eng := runtime.NewEngine(nil, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnInit: func(ctx context.Context, e *domain.FlowEvent) {
			if e.Err != nil {
				initErr = e.Err
			}
		},
	}))
	broken := define(t, eng, &domain.Definition{
		Name: "broken",
		Init: func(props domain.Props, done func(error)) { done(errors.New("no db")) },
		In: func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
			return domain.Value(data)
		},
	})
	a := define(t, eng, &domain.Definition{Name: "a"})

	flow := a.To(broken)
	drain(t, eng)

	var ie *domain.InitializationError
	require.ErrorAs(t, initErr, &ie)
	assert.Equal(t, "broken", ie.Blueprint)
	assert.Equal(t, 0, flow.Snapshot().FlowLength)
}

func TestEngine_MissingHandlerIsFatal(t *testing.T) {
	eng := runtime.NewEngine(nil)
	a := define(t, eng, &domain.Definition{Name: "a"})
	noInput := define(t, eng, &domain.Definition{
		Name: "source-only",
		On:   func(step domain.Step, props domain.Props) {},
	})

	a.To(noInput)
	err := eng.Drain(context.Background())

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, domain.ErrNoInput)
}

func TestEngine_ConfigurationErrors(t *testing.T) {
	eng := runtime.NewEngine(nil)
	other := runtime.NewEngine(nil)
	a := define(t, eng, &domain.Definition{Name: "a"})
	foreign := define(t, other, &domain.Definition{Name: "f"})

	t.Run("Nil target", func(t *testing.T) {
		assert.ErrorIs(t, a.To(nil).Err(), domain.ErrNoTarget)
	})

	t.Run("Foreign target", func(t *testing.T) {
		assert.ErrorIs(t, a.To(foreign).Err(), domain.ErrForeignTarget)
	})

	t.Run("Nil receiver", func(t *testing.T) {
		var b *runtime.Blueprint
		_, err := b.AddPipe(domain.DirectionTo, "x", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidBlueprint)
	})

	t.Run("Errors are sticky", func(t *testing.T) {
		bad := a.To(nil)
		assert.Same(t, bad, bad.To("ignored"))
	})
}

func TestEngine_SingletonSharesInstance(t *testing.T) {
	eng := runtime.NewEngine(nil)
	shared := define(t, eng, &domain.Definition{
		Name:      "shared",
		Singleton: true,
		In: func(step domain.Step, data any, props domain.Props, done domain.Callback) domain.Result {
			return domain.Value(data)
		},
	})

	assert.Equal(t, shared.ID(), shared.New().ID())
	assert.Equal(t, shared.ID(), eng.Blueprint("Shared").ID(), "names are normalized")
}

func TestEngine_ParentLinksAreDeduplicated(t *testing.T) {
	eng := runtime.NewEngine(nil)
	rec := newRecorder()
	a := define(t, eng, rec.def("a", nil))
	b := define(t, eng, rec.def("b", nil))

	a.To(b).To(b)
	drain(t, eng)

	snaps := eng.Snapshot()
	var parents []runtime.NodeID
	for _, s := range snaps {
		if s.Name == "b" && s.Instance {
			parents = s.Parents
		}
	}
	assert.Len(t, parents, 1)
}
