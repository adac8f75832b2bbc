package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryConfig bounds retries of transient model failures.
type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultRetryConfig returns three attempts with exponential backoff from 1s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 3, Delay: time.Second, MaxDelay: 30 * time.Second}
}

// WithRetry retries calls that fail with a RetryableError. Other errors,
// and context cancellation, are returned immediately.
func WithRetry(c Completer, cfg RetryConfig, log *slog.Logger) Completer {
	if cfg.Attempts <= 1 {
		return c
	}
	opts := []retry.Option{
		retry.Attempts(cfg.Attempts),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if log != nil {
				log.Warn("retryable model error", "attempt", n+1, "error", err)
			}
		}),
	}
	if cfg.Delay > 0 {
		opts = append(opts,
			retry.Delay(cfg.Delay),
			retry.MaxJitter(cfg.Delay/2+1),
			retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		)
		if cfg.MaxDelay > 0 {
			opts = append(opts, retry.MaxDelay(cfg.MaxDelay))
		}
	} else {
		opts = append(opts, retry.Delay(0), retry.DelayType(retry.FixedDelay))
	}

	return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return retry.DoWithData(
			func() (string, error) {
				return c.Complete(ctx, prompt)
			},
			append([]retry.Option{retry.Context(ctx)}, opts...)...,
		)
	})
}
