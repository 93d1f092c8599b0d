package ai

import (
	"context"
	"time"
)

// Logger is the logging surface the ai package needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// RetryService runs provider calls with a per-attempt timeout and linear backoff.
type RetryService struct {
	maxRetries int
	delay      time.Duration
	logger     Logger
}

func NewRetryService(maxRetries int, delay time.Duration, logger Logger) *RetryService {
	if logger == nil {
		logger = nopLogger{}
	}
	return &RetryService{maxRetries: maxRetries, delay: delay, logger: logger}
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// RetryWithTimeout calls call until it succeeds, the error is not retryable, retries
// are exhausted, or ctx is done. Each attempt gets its own timeout.
func (r *RetryService) RetryWithTimeout(ctx context.Context, timeout time.Duration, call func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			r.logger.Debug("retrying operation", "attempt", attempt, "max_retries", r.maxRetries)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay * time.Duration(attempt)):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := call(attemptCtx)
		cancel()
		if err == nil {
			if attempt > 0 {
				r.logger.Info("operation succeeded after retry", "attempts", attempt+1)
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt < r.maxRetries {
			r.logger.Warn("operation failed, retrying", "attempt", attempt+1, "error", err)
		}
	}

	r.logger.Error("operation failed after all retries", "attempts", r.maxRetries+1, "error", lastErr)
	return lastErr
}
