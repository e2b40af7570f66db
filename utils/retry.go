package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

const defaultMaxRetries = 3

// NewBreaker builds the circuit breaker used in front of each external
// dependency: it opens after five consecutive failures and probes again
// after a 30 second cooldown.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// RetryWithBreaker runs op through the breaker with bounded exponential
// backoff. Only TransientErrors are retried; domain errors abort
// immediately. An open breaker fails fast without invoking op.
func RetryWithBreaker(ctx context.Context, cb *gobreaker.CircuitBreaker, op func(ctx context.Context) error) error {
	attempt := func() error {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, op(ctx)
		})
		if err == nil {
			return nil
		}
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return backoff.Permanent(Transient(cb.Name()+" circuit open", err))
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), defaultMaxRetries),
		ctx,
	)
	return backoff.Retry(attempt, policy)
}
