// Package retry wraps avast/retry-go with the engine's retry policies.
// Only errors accepted by the configured predicate are retried; everything
// else is returned after the first attempt.
package retry

import (
	"context"
	"time"

	retrygo "github.com/avast/retry-go/v4"
)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts uint

	// InitialDelay is the backoff base before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps a single backoff.
	MaxDelay time.Duration

	// MaxJitter adds up to this much random delay to each backoff.
	MaxJitter time.Duration

	// RetryIf decides whether an error is worth another attempt.
	// If nil, nothing is retried.
	RetryIf func(error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt uint, err error)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		MaxJitter:    20 * time.Millisecond,
	}
}

// Option is a functional option for configuring retries.
type Option func(*Config)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n uint) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithInitialDelay sets the backoff base.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.InitialDelay = d
		}
	}
}

// WithMaxDelay sets the maximum delay between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithJitter sets the maximum random jitter.
func WithJitter(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.MaxJitter = d
		}
	}
}

// WithRetryIf sets the predicate that selects retryable errors.
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) {
		c.RetryIf = fn
	}
}

// WithOnRetry sets a callback invoked before each retry.
func WithOnRetry(fn func(attempt uint, err error)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// Retrier manages retry operations.
type Retrier struct {
	config Config
}

// New creates a new Retrier with the given options.
func New(opts ...Option) *Retrier {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Retrier{config: config}
}

// Config returns the effective configuration.
func (r *Retrier) Config() Config {
	return r.config
}

func (r *Retrier) options(ctx context.Context) []retrygo.Option {
	retryIf := r.config.RetryIf
	if retryIf == nil {
		retryIf = func(error) bool { return false }
	}

	// RandomDelay panics on a zero jitter window.
	delayType := retrygo.BackOffDelay
	if r.config.MaxJitter > 0 {
		delayType = retrygo.CombineDelay(retrygo.BackOffDelay, retrygo.RandomDelay)
	}

	opts := []retrygo.Option{
		retrygo.Context(ctx),
		retrygo.Attempts(r.config.MaxAttempts),
		retrygo.Delay(r.config.InitialDelay),
		retrygo.MaxDelay(r.config.MaxDelay),
		retrygo.MaxJitter(r.config.MaxJitter),
		retrygo.DelayType(delayType),
		retrygo.RetryIf(retryIf),
		retrygo.LastErrorOnly(true),
	}
	if r.config.OnRetry != nil {
		onRetry := r.config.OnRetry
		opts = append(opts, retrygo.OnRetry(func(n uint, err error) {
			onRetry(n+1, err)
		}))
	}
	return opts
}

// Do runs operation until it succeeds, returns a non-retryable error, or
// the attempts are exhausted. The last error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	return retrygo.Do(func() error {
		return operation(ctx)
	}, r.options(ctx)...)
}

// DoWithData is Do for operations that return a value.
func DoWithData[T any](ctx context.Context, r *Retrier, operation func(ctx context.Context) (T, error)) (T, error) {
	return retrygo.DoWithData(func() (T, error) {
		return operation(ctx)
	}, r.options(ctx)...)
}

// StorageRetrier retries a failed storage call exactly once after a short
// backoff, for errors accepted by isTransient.
func StorageRetrier(isTransient func(error) bool, backoff time.Duration, opts ...Option) *Retrier {
	base := []Option{
		WithMaxAttempts(2),
		WithInitialDelay(backoff),
		WithMaxDelay(time.Second),
		WithJitter(backoff / 4),
		WithRetryIf(isTransient),
	}
	return New(append(base, opts...)...)
}
