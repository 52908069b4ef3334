package source

import (
	"context"
	"errors"
	"math"
	"net"
	"strings"
	"time"

	"crm-pipeline/internal/model"

	"github.com/rs/zerolog"
)

// RetryConfig defines retry behavior for provider fetches.
type RetryConfig struct {
	MaxAttempts        int           `yaml:"max_attempts"`
	InitialDelay       time.Duration `yaml:"initial_delay"`
	MaxDelay           time.Duration `yaml:"max_delay"`
	BackoffMultiplier  float64       `yaml:"backoff_multiplier"`
	RetryableErrors    []string      `yaml:"retryable_errors"`
	NonRetryableErrors []string      `yaml:"non_retryable_errors"`
}

// DefaultRetryConfig is used when no policy is configured.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:        3,
	InitialDelay:       500 * time.Millisecond,
	MaxDelay:           10 * time.Second,
	BackoffMultiplier:  2.0,
	RetryableErrors:    []string{"timeout", "connection refused", "connection reset", "temporary"},
	NonRetryableErrors: []string{"no such file", "permission denied", "unknown transformation", "failed to decode"},
}

// Retrying wraps a provider and retries failed fetches with exponential
// backoff. Cancellation of ctx stops the retries immediately.
type Retrying struct {
	Provider Provider
	Config   RetryConfig
	Logger   zerolog.Logger
	Entity   string

	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps p with the given policy.
func WithRetry(entity string, p Provider, cfg RetryConfig, logger zerolog.Logger) *Retrying {
	return &Retrying{Provider: p, Config: cfg, Logger: logger, Entity: entity}
}

// Records fetches from the wrapped provider, retrying retryable errors.
func (r *Retrying) Records(ctx context.Context) ([]model.Record, error) {
	attempts := max(r.Config.MaxAttempts, 1)
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		records, err := r.Provider.Records(ctx)
		if err == nil {
			if attempt > 1 {
				r.Logger.Info().Str("entity", r.Entity).Int("attempt", attempt).Msg("fetch succeeded after retry")
			}
			return records, nil
		}
		lastErr = err

		if attempt == attempts || !IsRetryable(err, r.Config) {
			break
		}
		delay := Backoff(r.Config, attempt)
		r.Logger.Warn().Err(err).
			Str("entity", r.Entity).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("fetch failed, retrying")
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Backoff returns the delay after the given (1-based) failed attempt.
func Backoff(cfg RetryConfig, attempt int) time.Duration {
	multiplier := cfg.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

// IsRetryable classifies an error. Context cancellation and client-side
// HTTP statuses never retry; server errors and network timeouts do.
// Otherwise the configured substrings decide, non-retryable first, and
// unknown errors retry.
func IsRetryable(err error, cfg RetryConfig) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, nonRetryable := range cfg.NonRetryableErrors {
		if strings.Contains(msg, strings.ToLower(nonRetryable)) {
			return false
		}
	}
	for _, retryable := range cfg.RetryableErrors {
		if strings.Contains(msg, strings.ToLower(retryable)) {
			return true
		}
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
