package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBreakerRetriesTransient(t *testing.T) {
	cb := NewBreaker("test")
	calls := 0
	err := RetryWithBreaker(context.Background(), cb, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Transient("flaky", errors.New("timeout"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBreakerStopsOnDomainError(t *testing.T) {
	cb := NewBreaker("test")
	calls := 0
	err := RetryWithBreaker(context.Background(), cb, func(ctx context.Context) error {
		calls++
		return ErrDuplicateLead
	})
	assert.ErrorIs(t, err, ErrDuplicateLead)
	assert.Equal(t, 1, calls, "domain errors must not be retried")
}

func TestRetryWithBreakerOpensCircuit(t *testing.T) {
	cb := NewBreaker("test")
	boom := Transient("down", errors.New("connection refused"))

	// Two exhausted retry rounds push the breaker past five consecutive
	// failures.
	for i := 0; i < 2; i++ {
		err := RetryWithBreaker(context.Background(), cb, func(ctx context.Context) error {
			return boom
		})
		assert.Error(t, err)
	}

	calls := 0
	err := RetryWithBreaker(context.Background(), cb, func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.Error(t, err, "open breaker must fail fast")
	assert.Zero(t, calls, "open breaker must not invoke the operation")
	assert.True(t, IsTransient(err))
}

func TestTransientWrapping(t *testing.T) {
	inner := errors.New("boom")
	err := Transient("op", inner)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "op")
	assert.False(t, IsTransient(inner))
}
