// Package presence produces the decorative "N people are answering" counter
// shown next to a live run. It is independent of the engine: a renderer may
// show it or not without changing any run behaviour.
package presence

import (
	"context"
	"math/rand"
	"time"

	"quiz-funnel/internal/config"

	"k8s.io/utils/clock"
)

const (
	DefaultInterval = 4 * time.Second
	DefaultMin      = 12
	DefaultMax      = 48
	// MaxStep bounds how far the counter moves per tick.
	MaxStep = 3
)

// Walk moves current by delta and clamps the result to [lo, hi].
func Walk(current, delta, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	next := current + delta
	if next < lo {
		return lo
	}
	if next > hi {
		return hi
	}
	return next
}

// Feed emits a random walk within [Min, Max] every Interval.
type Feed struct {
	Interval time.Duration
	Min      int
	Max      int

	clock clock.WithTicker
	rnd   *rand.Rand
}

type Option func(*Feed)

func WithClock(c clock.WithTicker) Option {
	return func(f *Feed) { f.clock = c }
}

// WithSeed makes the walk reproducible.
func WithSeed(seed int64) Option {
	return func(f *Feed) { f.rnd = rand.New(rand.NewSource(seed)) }
}

func NewFeed(cfg config.PresenceConfig, opts ...Option) *Feed {
	f := &Feed{
		Interval: cfg.Interval,
		Min:      cfg.Min,
		Max:      cfg.Max,
		clock:    clock.RealClock{},
	}
	if f.Interval <= 0 {
		f.Interval = DefaultInterval
	}
	if f.Min <= 0 && f.Max <= 0 {
		f.Min, f.Max = DefaultMin, DefaultMax
	}
	if f.Max < f.Min {
		f.Min, f.Max = f.Max, f.Min
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.rnd == nil {
		f.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return f
}

// Run calls emit with the starting count and then once per tick until ctx
// is done. emit runs on the caller's goroutine.
func (f *Feed) Run(ctx context.Context, emit func(count int)) {
	ticker := f.clock.NewTicker(f.Interval)
	defer ticker.Stop()

	count := f.Min + f.rnd.Intn(f.Max-f.Min+1)
	emit(count)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			count = Walk(count, f.rnd.Intn(2*MaxStep+1)-MaxStep, f.Min, f.Max)
			emit(count)
		}
	}
}
