package runtime

import (
	"fmt"
	"time"

	"github.com/aretw0/frame/pkg/domain"
)

// nextPipe advances o's flow to index. It is only ever reached from a queued task.
func (e *Engine) nextPipe(o *node, index int, err error, data any) {
	if err != nil {
		// index is where the flow would have gone; the failure happened one before.
		failed := index - 1
		stepErr := &domain.RuntimeStepError{Blueprint: o.name, Step: failed, Err: err}
		e.logger.Error("flow aborted", "blueprint", o.name, "step", failed, "err", err)
		o.processingFlow = false
		if e.rejectOnError {
			if p := o.takePromise(); p != nil {
				p.Reject(stepErr)
			}
		}
		e.emit(e.hooks.OnFlowAbort, domain.EventFlowAbort, o, failed, "", nil, stepErr, e.elapsed(o))
		e.afterFlow(o)
		return
	}

	if index == 0 {
		o.flowStart = time.Now()
	}

	if index >= len(o.flow) {
		o.processingFlow = false
		if p := o.takePromise(); p != nil {
			p.Resolve(data)
		}
		for _, pid := range o.parents {
			parent := e.nodes[pid]
			e.logger.Debug("resuming parent flow", "blueprint", parent.name, "child", o.name)
			e.loop.post(func() { e.resume(parent, data) })
		}
		e.logger.Debug("end of flow", "blueprint", o.name, "step", index)
		e.emit(e.hooks.OnFlowEnd, domain.EventFlowEnd, o, index, "", data, nil, e.elapsed(o))
		e.afterFlow(o)
		return
	}

	o.processingFlow = true
	e.callNext(o, index, data)
}

// resume restarts n at step 0, or queues the data until n's flow is built.
// A node without pipes has no flow to run.
func (e *Engine) resume(n *node, data any) {
	if len(n.pipes) == 0 {
		e.logger.Debug("trigger ignored, no flow", "blueprint", n.name)
		return
	}
	if len(n.flow) == 0 && len(n.pipes) > 0 {
		n.triggers = append(n.triggers, data)
		e.scheduleBuild(n)
		return
	}
	e.nextPipe(n, 0, nil, data)
}

// afterFlow rebuilds flows whose pipes changed while they were running.
func (e *Engine) afterFlow(o *node) {
	if o.dirty {
		e.scheduleBuild(o)
	}
}

func (e *Engine) elapsed(o *node) time.Duration {
	if o.flowStart.IsZero() {
		return 0
	}
	return time.Since(o.flowStart)
}

// callNext invokes the input handler at flow[index] and bridges its result.
func (e *Engine) callNext(o *node, index int, data any) {
	p := o.flow[index]
	t := e.nodes[p.target]
	st := e.newStep(o, p.next, t.name, true)
	e.emit(e.hooks.OnStep, domain.EventStep, o, index, t.name, data, nil, 0)

	props, err := e.mapper.Destructure(t.describe(domain.PhaseIn), p.params)
	if err != nil {
		st.Error(fmt.Errorf("destructure %s: %w", t.name, err))
		return
	}
	e.settle(st, e.invokeIn(t, st, data, props))
}

func (e *Engine) invokeIn(t *node, st *step, data any, props domain.Props) (res domain.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.Fail(fmt.Errorf("panic in %s: %v", t.name, r))
		}
	}()

	switch {
	case t.kind == kindConstant:
		return domain.Value(t.constant)
	case t.kind == kindFunction:
		return t.adapt(st, data, props, st.callback)
	case t.def.In == nil:
		// Only the owner's self-edge can get here: pass the data through.
		return domain.Value(data)
	default:
		return t.def.In(st, data, props, st.callback)
	}
}

// settle turns a handler's Result into Out or Error on st.
func (e *Engine) settle(st *step, res domain.Result) {
	value, err, promise, settled := res.Unwrap()
	switch {
	case settled && err != nil:
		st.Error(err)
	case settled:
		st.Out(value)
	case promise != nil:
		promise.Then(func(v any, err error) {
			if err != nil {
				st.Error(err)
				return
			}
			st.Out(v)
		})
	}
}
