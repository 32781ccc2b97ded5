package retry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/loykin/curlproxy/internal/common"
)

// Config holds the retry policy for history store writes and reads
type Config struct {
	MaxRetries      int           // Attempts after the first one
	InitialDelay    time.Duration // Delay before the first retry
	MaxDelay        time.Duration // Upper bound for any single delay
	BackoffFactor   float64       // Multiplier between consecutive delays
	RetryableErrors []string      // Lower-cased substrings that mark an error as transient
}

// DefaultRetryConfig returns the policy used when none is configured
func DefaultRetryConfig() *Config {
	return &Config{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: []string{
			"connection refused",
			"connection reset",
			"timeout",
			"temporary failure",
			"deadlock",
			"database is locked",
			"database table is locked",
			"sqlite_busy",
			"too many connections",
			"broken pipe",
		},
	}
}

// IsRetryable reports whether err looks transient. Context errors never are.
func (rc *Config) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, sql.ErrTxDone) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, s := range rc.RetryableErrors {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Delay returns the wait before retry number attempt (1-based).
func (rc *Config) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return rc.InitialDelay
	}
	d := time.Duration(float64(rc.InitialDelay) * math.Pow(rc.BackoffFactor, float64(attempt-1)))
	if d > rc.MaxDelay || d <= 0 {
		d = rc.MaxDelay
	}
	return d
}

// Operation is one attempt of a store call
type Operation func(ctx context.Context) error

// Do runs op until it succeeds, fails with a non-retryable error, runs out of
// attempts, or ctx ends. A nil config means DefaultRetryConfig; a nil logger discards.
func Do(ctx context.Context, config *Config, logger *common.Logger, op Operation) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if logger == nil {
		logger = common.NewDiscardLogger()
	}
	logger = logger.WithComponent("store-retry")

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("store operation succeeded after retry", "attempt", attempt+1)
			}
			return nil
		}
		lastErr = err

		if !config.IsRetryable(err) {
			return err
		}
		if attempt == config.MaxRetries {
			break
		}

		delay := config.Delay(attempt + 1)
		logger.Warn("store operation failed, retrying",
			"error", err,
			"attempt", attempt+1,
			"max_attempts", config.MaxRetries+1,
			"retry_delay", delay)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("operation cancelled during retry: %w", ctx.Err())
		case <-t.C:
		}
	}

	logger.Error("store operation failed after all retry attempts", "error", lastErr, "attempts", config.MaxRetries+1)
	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, config *Config, logger *common.Logger, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, config, logger, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
