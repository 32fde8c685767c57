package engine

import "sync"

// mailbox collects timer callbacks for the loop. put never blocks, so a
// clock that runs callbacks while holding its own lock cannot stall on a loop
// that is reading that clock.
type mailbox struct {
	mu    sync.Mutex
	items []interface{}
	wake  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

func (m *mailbox) put(v interface{}) {
	m.mu.Lock()
	m.items = append(m.items, v)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// take returns everything queued so far, oldest first.
func (m *mailbox) take() []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	return items
}
