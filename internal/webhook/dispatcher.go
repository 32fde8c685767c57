// Package webhook delivers response notifications to quiz owners' endpoints.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quiz-funnel/internal/config"
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull = errors.New("webhook queue is full")
	ErrStopped   = errors.New("webhook dispatcher is stopped")
)

const userAgent = "quiz-funnel-webhook/1.0"

// Poster performs one delivery attempt.
type Poster interface {
	Post(ctx context.Context, url string, payload domain.WebhookPayload) error
}

// Dispatcher fans queued jobs out to a fixed pool of workers. Each job is
// retried with exponential backoff until it succeeds, fails permanently or
// runs out of attempts.
type Dispatcher struct {
	queue       chan domain.WebhookJob
	workers     int
	timeout     time.Duration
	maxAttempts int
	poster      Poster
	newBackOff  func() backoff.BackOff
	log         *zap.Logger

	mu     sync.RWMutex
	closed bool
}

type Option func(*Dispatcher)

func WithPoster(p Poster) Option {
	return func(d *Dispatcher) { d.poster = p }
}

// WithBackOff replaces the retry schedule; the attempt cap still applies.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(d *Dispatcher) { d.newBackOff = fn }
}

func NewDispatcher(cfg config.WebhookConfig, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		workers:     cfg.Workers,
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		log:         logger.Component("webhook"),
	}
	if d.workers <= 0 {
		d.workers = 1
	}
	if d.timeout <= 0 {
		d.timeout = 10 * time.Second
	}
	if d.maxAttempts <= 0 {
		d.maxAttempts = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}
	d.queue = make(chan domain.WebhookJob, size)
	d.newBackOff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 500 * time.Millisecond
		b.MaxInterval = 10 * time.Second
		b.MaxElapsedTime = 0
		return b
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.poster == nil {
		d.poster = &HTTPPoster{Timeout: d.timeout}
	}
	return d
}

// Enqueue never blocks; a full queue drops the job with ErrQueueFull.
func (d *Dispatcher) Enqueue(_ context.Context, job domain.WebhookJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrStopped
	}
	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes jobs until ctx is cancelled or Shutdown drains the queue.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case job, ok := <-d.queue:
					if !ok {
						return nil
					}
					d.deliver(ctx, job)
				}
			}
		})
	}
	return g.Wait()
}

// Shutdown stops intake. Jobs already queued are still delivered by Run.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.queue)
}

func (d *Dispatcher) deliver(ctx context.Context, job domain.WebhookJob) {
	attempt := 0
	op := func() error {
		attempt++
		return d.poster.Post(ctx, job.URL, job.Payload)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(d.newBackOff(), uint64(d.maxAttempts-1)), ctx)
	notify := func(err error, wait time.Duration) {
		d.log.Debug("Webhook delivery failed, retrying",
			zap.String("responseID", job.Payload.ResponseID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		d.log.Warn("Webhook delivery abandoned",
			zap.String("url", job.URL),
			zap.String("responseID", job.Payload.ResponseID),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return
	}
	d.log.Info("Webhook delivered",
		zap.String("url", job.URL),
		zap.String("responseID", job.Payload.ResponseID),
		zap.Int("attempts", attempt))
}

// StatusError reports a non-2xx webhook response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.Code)
}

// HTTPPoster posts payloads as JSON with the fiber client.
type HTTPPoster struct {
	Timeout time.Duration
}

// Post treats client errors other than 408 and 429 as permanent.
func (p *HTTPPoster) Post(ctx context.Context, url string, payload domain.WebhookPayload) error {
	if err := ctx.Err(); err != nil {
		return backoff.Permanent(err)
	}
	timeout := p.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout || timeout <= 0 {
			timeout = left
		}
	}

	a := fiber.Post(url).JSON(payload).Timeout(timeout)
	a.Set(fiber.HeaderUserAgent, userAgent)
	a.Set("X-Quiz-Event", payload.Event)
	code, _, errs := a.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code >= 200 && code < 300 {
		return nil
	}
	err := &StatusError{Code: code}
	if code >= 400 && code < 500 && code != fiber.StatusRequestTimeout && code != fiber.StatusTooManyRequests {
		return backoff.Permanent(err)
	}
	return err
}
