package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/aretw0/frame/pkg/domain"
)

// errNoCause replaces a nil error passed to Step.Error.
var errNoCause = errors.New("error signalled without a cause")

// step is the domain.Step handed to handlers. It carries the owner whose flow
// it advances and the position it advances to. Input steps settle once; event
// steps may signal any number of times.
type step struct {
	eng     *Engine
	owner   NodeID
	next    int
	name    string
	once    bool
	settled atomic.Bool
	started time.Time
}

var _ domain.Step = (*step)(nil)

func (e *Engine) newStep(o *node, next int, name string, once bool) *step {
	if once {
		e.loop.acquire()
	}
	return &step{eng: e, owner: o.id, next: next, name: name, once: once, started: time.Now()}
}

func (s *step) Name() string { return s.name }

func (s *step) Context() context.Context { return s.eng.context() }

func (s *step) Out(data any) { s.signal(nil, data) }

func (s *step) Error(err error) {
	if err == nil {
		err = errNoCause
	}
	s.signal(err, nil)
}

func (s *step) callback(err error, data any) {
	if err != nil {
		s.Error(err)
		return
	}
	s.Out(data)
}

func (s *step) signal(err error, data any) {
	if s.once && !s.settled.CompareAndSwap(false, true) {
		s.eng.logger.Warn("step already settled, signal ignored", "blueprint", s.name, "step", s.next-1)
		return
	}

	e := s.eng
	e.loop.post(func() {
		o := e.nodes[s.owner]
		if s.once {
			e.loop.release()
			e.emit(e.hooks.OnStepDone, domain.EventStepDone, o, s.next-1, s.name, data, err, time.Since(s.started))
		}
		e.nextPipe(o, s.next, err, data)
	})
}
