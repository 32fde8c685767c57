package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

const handoffWindow = 100 * time.Millisecond

// outbox delivers snapshots in order without ever blocking the run loop.
// Snapshots pushed before anyone subscribes are dropped, and so are snapshots
// still queued when the outbox closes and nobody is reading.
type outbox struct {
	subscribed atomic.Bool

	mu     sync.Mutex
	queue  []Snapshot
	closed bool
	wake   chan struct{}
	done   chan struct{}
	out    chan Snapshot
}

func newOutbox() *outbox {
	o := &outbox{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan Snapshot),
	}
	go o.pump()
	return o
}

func (o *outbox) subscribe() <-chan Snapshot {
	o.subscribed.Store(true)
	return o.out
}

func (o *outbox) push(s Snapshot) {
	if !o.subscribed.Load() {
		return
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.queue = append(o.queue, s)
	o.mu.Unlock()
	o.signal()
}

// close releases the pump. A reader that keeps receiving still gets the
// queued snapshots before the channel closes; an absent reader does not hold
// the pump.
func (o *outbox) close() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.done)
	}
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *outbox) pump() {
	defer close(o.out)
	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			closed := o.closed
			o.mu.Unlock()
			if closed {
				return
			}
			<-o.wake
			continue
		}
		s := o.queue[0]
		o.queue = o.queue[1:]
		o.mu.Unlock()

		if !o.subscribed.Load() {
			continue
		}
		select {
		case o.out <- s:
		case <-o.done:
			if !o.handoff(s) {
				return
			}
		}
	}
}

// handoff gives a reader that is still receiving after close a short window to
// take s. It reports false when nobody does.
func (o *outbox) handoff(s Snapshot) bool {
	t := time.NewTimer(handoffWindow)
	defer t.Stop()
	select {
	case o.out <- s:
		return true
	case <-t.C:
		return false
	}
}
