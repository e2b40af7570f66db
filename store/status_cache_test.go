package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCacheSetGet(t *testing.T) {
	cache := NewStatusCache(nil, time.Minute, 10)
	ctx := context.Background()

	cache.Set(ctx, PipelineStatus{CorrelationID: "abc", Stage: StageSaved, LeadUID: "lead_x"})

	status, ok := cache.Get(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, StageSaved, status.Stage)
	assert.Equal(t, "lead_x", status.LeadUID)
	assert.False(t, status.UpdatedAt.IsZero())

	_, ok = cache.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestStatusCacheTTLEviction(t *testing.T) {
	cache := NewStatusCache(nil, 20*time.Millisecond, 10)
	ctx := context.Background()

	cache.Set(ctx, PipelineStatus{CorrelationID: "abc", Stage: StageReceived})
	time.Sleep(40 * time.Millisecond)

	_, ok := cache.Get(ctx, "abc")
	assert.False(t, ok, "expired entries must not be returned")
}

func TestStatusCacheSizeBound(t *testing.T) {
	const maxSize = 5
	cache := NewStatusCache(nil, time.Minute, maxSize)
	ctx := context.Background()

	for i := 0; i < maxSize*3; i++ {
		cache.Set(ctx, PipelineStatus{
			CorrelationID: fmt.Sprintf("id-%d", i),
			Stage:         StageReceived,
		})
	}

	cache.mu.Lock()
	size := len(cache.entries)
	cache.mu.Unlock()
	assert.LessOrEqual(t, size, maxSize, "cache must never grow past its bound")

	// The newest entry always survives eviction.
	_, ok := cache.Get(ctx, fmt.Sprintf("id-%d", maxSize*3-1))
	assert.True(t, ok)
}

func TestStatusCacheOverwrite(t *testing.T) {
	cache := NewStatusCache(nil, time.Minute, 10)
	ctx := context.Background()

	cache.Set(ctx, PipelineStatus{CorrelationID: "abc", Stage: StageReceived})
	cache.Set(ctx, PipelineStatus{CorrelationID: "abc", Stage: StageNotified})

	status, ok := cache.Get(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, StageNotified, status.Stage)
}
