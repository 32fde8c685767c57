// Package interstitial implements the timed ad pause shown between sessions
// and before the result.
//
// A Controller produces exactly one unlock signal DisplayTime after it is
// opened, whether it simulates the ad (test mode) or hosts real markup, and
// whether or not that markup mounted successfully. Closing a controller
// detaches any mounted markup and suppresses a pending unlock.
package interstitial

import (
	"math"
	"sync"
	"time"

	"quiz-funnel/internal/domain"

	"k8s.io/utils/clock"
)

// Handle identifies markup mounted by a ContentHost.
type Handle string

// ContentHost is the only surface through which third-party markup reaches a
// renderer. The controller never executes or inspects markup itself.
type ContentHost interface {
	Mount(markup string) (Handle, error)
	Unmount(h Handle) error
}

type Params struct {
	TestMode    bool
	Markup      string
	DisplayTime time.Duration
	Message     string
}

// Payload is the render state of an interstitial.
type Payload struct {
	TestMode  bool   `json:"testMode"`
	Message   string `json:"message,omitempty"`
	Remaining int    `json:"remaining"`
	Unlocked  bool   `json:"unlocked"`
	Mounted   bool   `json:"mounted"`
	// ContentError is set when the host failed to mount the markup.
	ContentError string `json:"contentError,omitempty"`
}

type Controller struct {
	clock  clock.WithDelayedExecution
	host   ContentHost
	params Params

	mu       sync.Mutex
	deadline time.Time
	timer    clock.Timer
	handle   Handle
	mounted  bool
	mountErr error
	unlocked bool
	closed   bool
	onUnlock func()
}

// Open starts an interstitial. onUnlock runs at most once, on a timer
// goroutine, unless the controller is closed first.
func Open(clk clock.WithDelayedExecution, host ContentHost, p Params, onUnlock func()) *Controller {
	if p.DisplayTime < 0 {
		p.DisplayTime = 0
	}
	c := &Controller{
		clock:    clk,
		host:     host,
		params:   p,
		deadline: clk.Now().Add(p.DisplayTime),
		onUnlock: onUnlock,
	}

	if !p.TestMode && p.Markup != "" && host != nil {
		h, err := host.Mount(p.Markup)
		if err != nil {
			c.mountErr = domain.NewError(domain.CodeInjectedContentFailed, "ad content failed to mount", err)
		} else {
			c.handle = h
			c.mounted = true
		}
	}

	if p.DisplayTime == 0 {
		go c.fire()
		return c
	}
	c.timer = clk.AfterFunc(p.DisplayTime, c.fire)
	return c
}

func (c *Controller) fire() {
	c.mu.Lock()
	if c.closed || c.unlocked {
		c.mu.Unlock()
		return
	}
	c.unlocked = true
	cb := c.onUnlock
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Unlocked reports whether the continue affordance is available.
func (c *Controller) Unlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unlocked
}

// Remaining is the whole seconds left before unlock, rounded up.
func (c *Controller) Remaining() int {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingAt(now)
}

// remainingAt needs c.mu. The clock is read before taking it: fake clocks run
// fire while holding their own lock, and fire takes c.mu.
func (c *Controller) remainingAt(now time.Time) int {
	if c.unlocked {
		return 0
	}
	left := c.deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// MountErr returns the injected-content failure, if any.
func (c *Controller) MountErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mountErr
}

func (c *Controller) Payload() Payload {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	p := Payload{
		TestMode:  c.params.TestMode,
		Message:   c.params.Message,
		Remaining: c.remainingAt(now),
		Unlocked:  c.unlocked,
		Mounted:   c.mounted,
	}
	if c.mountErr != nil {
		p.ContentError = c.mountErr.Error()
	}
	return p
}

// Close stops the unlock timer and unmounts any markup. It is safe to call
// more than once; only the first call unmounts.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	timer := c.timer
	mounted, handle := c.mounted, c.handle
	c.mounted = false
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}

	if mounted {
		return c.host.Unmount(handle)
	}
	return nil
}
