package extract

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Completer sends a single prompt to a language model and returns its raw
// text response. Implementations must be safe to call sequentially; the
// engine never issues concurrent calls on one Completer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Metered records every call on stats, failures included.
func Metered(c Completer, stats *LLMStats) Completer {
	if stats == nil {
		return c
	}
	return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		start := time.Now()
		out, err := c.Complete(ctx, prompt)
		stats.Record(Call{
			Duration:      time.Since(start),
			PromptChars:   len(prompt),
			ResponseChars: len(out),
			Err:           err,
		})
		return out, err
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
