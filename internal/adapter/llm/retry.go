package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sashabaranov/go-openai"
)

// RetryConfig configures retry behavior for generator calls.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts (0 = no retries)
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Caps exponential backoff
	Timeout    time.Duration // Per-attempt timeout, 0 = none
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   8 * time.Second,
		Timeout:    60 * time.Second,
	}
}

// Retry calls fn until it succeeds, fails with a non-retryable error, or
// MaxRetries retries are spent. It returns the number of attempts made.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (string, error)) (string, int, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.BaseDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.1

	attempts := 0
	out, err := backoff.Retry(ctx, func() (string, error) {
		attempts++

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}
		defer cancel()

		out, err := fn(attemptCtx)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil || !IsRetryable(err) {
			return "", backoff.Permanent(err)
		}
		return "", err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(cfg.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
	)
	return out, attempts, err
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// caller cancelled
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	// unknown errors are retried
	return true
}

func retryableStatus(code int, message string) bool {
	switch {
	case code == http.StatusTooManyRequests:
		// daily token limits do not reset within a retry window
		return !strings.Contains(message, "tokens per day")
	case code >= 500:
		return true
	case code >= 400:
		return false
	}
	return true
}
