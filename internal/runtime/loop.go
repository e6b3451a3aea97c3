package runtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// task is a unit of work executed on the loop goroutine.
type task func()

// debounceKey identifies one coalesced operation on one node.
type debounceKey struct {
	node NodeID
	op   string
}

type debounceEntry struct {
	timer *time.Timer
}

// loop is a FIFO mailbox drained by a single goroutine.
// inflight counts work that will post back later (timers, loads, unsettled steps)
// so that drain can tell "idle" from "waiting".
type loop struct {
	mu      sync.Mutex
	queue   []task
	wake    chan struct{}
	timers  map[debounceKey]*debounceEntry
	pending map[debounceKey]bool

	inflight atomic.Int64
}

func newLoop() *loop {
	return &loop{
		wake:    make(chan struct{}, 1),
		timers:  make(map[debounceKey]*debounceEntry),
		pending: make(map[debounceKey]bool),
	}
}

// post appends t to the mailbox. Safe from any goroutine.
func (l *loop) post(t task) {
	l.mu.Lock()
	l.queue = append(l.queue, t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *loop) pop() (task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	t := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return t, true
}

func (l *loop) acquire() { l.inflight.Add(1) }

func (l *loop) release() { l.inflight.Add(-1) }

// debounce schedules fn under key. Repeated requests inside the window restart
// it; with a zero window fn runs on the next queue turn and repeated requests
// made before then are dropped.
func (l *loop) debounce(key debounceKey, window time.Duration, fn task) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if window <= 0 {
		if l.pending[key] {
			return
		}
		l.pending[key] = true
		l.acquire()
		l.queue = append(l.queue, func() {
			l.mu.Lock()
			delete(l.pending, key)
			l.mu.Unlock()
			l.release()
			fn()
		})
		select {
		case l.wake <- struct{}{}:
		default:
		}
		return
	}

	if entry, ok := l.timers[key]; ok && entry.timer.Stop() {
		entry.timer.Reset(window)
		return
	}

	entry := &debounceEntry{}
	l.acquire()
	entry.timer = time.AfterFunc(window, func() {
		l.post(func() {
			l.mu.Lock()
			if l.timers[key] == entry {
				delete(l.timers, key)
			}
			l.mu.Unlock()
			l.release()
			fn()
		})
	})
	l.timers[key] = entry
}

// run executes tasks until ctx is done, a task reports a fatal error, or (when
// untilIdle is set) the mailbox is empty with nothing in flight.
func (l *loop) run(ctx context.Context, untilIdle bool, fatal func() error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if t, ok := l.pop(); ok {
			t()
			if err := fatal(); err != nil {
				return err
			}
			continue
		}

		if untilIdle && l.idle() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *loop) idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) == 0 && l.inflight.Load() == 0
}

// stop cancels pending timers. Their work is dropped.
func (l *loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.timers {
		if entry.timer.Stop() {
			l.release()
		}
		delete(l.timers, key)
	}
}
