package domain

import (
	"context"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// Step is handed to a blueprint handler. Out and Error advance the flow that
// invoked the handler; both are safe to call from any goroutine.
type Step interface {
	// Name is the name of the blueprint being invoked.
	Name() string
	// Context is the context the engine is running under.
	Context() context.Context
	Out(data any)
	Error(err error)
}

// Callback is the node-style completion function passed to input handlers.
type Callback func(err error, data any)

type resultKind int

const (
	resultPending resultKind = iota
	resultValue
	resultFail
	resultAwait
)

// Result is what an InputFunc returns. The zero value is Pending.
type Result struct {
	kind    resultKind
	value   any
	err     error
	promise *Promise
}

// Pending reports that the handler will signal later.
func Pending() Result { return Result{} }

// Value settles the step synchronously with v.
func Value(v any) Result { return Result{kind: resultValue, value: v} }

// Fail settles the step synchronously with err.
func Fail(err error) Result { return Result{kind: resultFail, err: err} }

// Await settles the step when p settles.
func Await(p *Promise) Result {
	if p == nil {
		return Pending()
	}
	return Result{kind: resultAwait, promise: p}
}

// IsPending reports whether the handler deferred its signal.
func (r Result) IsPending() bool { return r.kind == resultPending }

// Unwrap exposes the result to the runtime: the value or error when settled,
// the promise when awaiting.
func (r Result) Unwrap() (value any, err error, promise *Promise, settled bool) {
	switch r.kind {
	case resultValue:
		return r.value, nil, nil, true
	case resultFail:
		return nil, r.err, nil, true
	case resultAwait:
		return nil, nil, r.promise, false
	default:
		return nil, nil, nil, false
	}
}

// Promise is a single-assignment value that may be settled from any goroutine.
type Promise struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	value     any
	err       error
	callbacks []func(any, error)
}

// NewPromise returns an unsettled promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolve settles the promise with v. It reports false if already settled.
func (p *Promise) Resolve(v any) bool { return p.settle(v, nil) }

// Reject settles the promise with err. It reports false if already settled.
func (p *Promise) Reject(err error) bool { return p.settle(nil, err) }

func (p *Promise) settle(v any, err error) bool {
	p.mu.Lock()
	if p.settled {
		p.mu.Unlock()
		return false
	}
	p.settled = true
	p.value, p.err = v, err
	callbacks := p.callbacks
	p.callbacks = nil
	close(p.done)
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Then registers fn to run once the promise settles. If it already has, fn runs
// immediately on the calling goroutine; otherwise it runs on the settling one.
func (p *Promise) Then(fn func(value any, err error)) {
	p.mu.Lock()
	if !p.settled {
		p.callbacks = append(p.callbacks, fn)
		p.mu.Unlock()
		return
	}
	v, err := p.value, p.err
	p.mu.Unlock()
	fn(v, err)
}

// Wait blocks until the promise settles or ctx is done.
func (p *Promise) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once the promise settles.
func (p *Promise) Done() <-chan struct{} { return p.done }

// Settled reports whether Resolve or Reject has been called.
func (p *Promise) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settled
}

// Props are the destructured parameters handed to a handler.
// Args keeps the raw positional values; Named is filled from the describe manifest.
type Props struct {
	Args  []any
	Named map[string]any
}

// Get returns a named prop.
func (p Props) Get(name string) (any, bool) {
	v, ok := p.Named[name]
	return v, ok
}

// String returns a named prop as a string, or fallback when missing or not a string.
func (p Props) String(name, fallback string) string {
	if v, ok := p.Named[name].(string); ok {
		return v
	}
	return fallback
}

// Arg returns the i-th positional value, or nil.
func (p Props) Arg(i int) any {
	if i < 0 || i >= len(p.Args) {
		return nil
	}
	return p.Args[i]
}

// Len is the number of positional values.
func (p Props) Len() int { return len(p.Args) }

// Decode copies the named props into out (a pointer to a struct or map).
func (p Props) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(p.Named)
}
