package service

import (
	"context"
	"time"
)

const (
	maxRetries     = 3
	initialBackoff = time.Second
)

// retryPolicy retries a call with exponential backoff
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: maxRetries, backoff: initialBackoff}
}

// do runs fn until it succeeds, attempts run out or ctx ends. It returns fn's last error.
func (p retryPolicy) do(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := p.backoff
	var err error
	for attempt := 0; attempt < max(p.attempts, 1); attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}

		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
