package engine

import (
	"time"

	"quiz-funnel/internal/config"
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/gateway"
	"quiz-funnel/internal/interstitial"
	"quiz-funnel/internal/logger"

	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

const (
	DefaultSettleDelay   = 300 * time.Millisecond
	DefaultRedirectDelay = 3 * time.Second
	DefaultSubmitTimeout = 15 * time.Second
)

// Options configure a Run. Zero durations other than SettleDelay fall back
// to the package defaults; a zero SettleDelay advances immediately.
type Options struct {
	Loader      Loader
	Gateway     gateway.Submitter
	ContentHost interstitial.ContentHost
	Clock       clock.WithDelayedExecution
	Logger      *zap.Logger

	// RunID overrides the generated run session id.
	RunID     string
	UserAgent string

	SettleDelay time.Duration
	// ProcessingTime and AdDisplayTime apply when the definition leaves them unset.
	ProcessingTime time.Duration
	AdDisplayTime  time.Duration
	RedirectDelay  time.Duration
	SubmitTimeout  time.Duration
}

// OptionsFromConfig maps the engine config section onto Options.
func OptionsFromConfig(cfg config.EngineConfig) Options {
	return Options{
		SettleDelay:    cfg.SettleDelay,
		ProcessingTime: cfg.ProcessingTime,
		AdDisplayTime:  cfg.AdDisplayTime,
		RedirectDelay:  cfg.RedirectDelay,
		SubmitTimeout:  cfg.SubmitTimeout,
	}
}

func (o *Options) applyDefaults() {
	if o.Gateway == nil {
		o.Gateway = gateway.Discard{}
	}
	if o.Clock == nil {
		o.Clock = clock.RealClock{}
	}
	if o.Logger == nil {
		o.Logger = logger.Get()
	}
	if o.ProcessingTime <= 0 {
		o.ProcessingTime = domain.DefaultProcessingTime * time.Second
	}
	if o.AdDisplayTime <= 0 {
		o.AdDisplayTime = domain.DefaultAdDisplayTime * time.Second
	}
	if o.RedirectDelay <= 0 {
		o.RedirectDelay = DefaultRedirectDelay
	}
	if o.SubmitTimeout <= 0 {
		o.SubmitTimeout = DefaultSubmitTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
}

func seconds(v *int, fallback time.Duration) time.Duration {
	if v == nil {
		return fallback
	}
	return time.Duration(*v) * time.Second
}
