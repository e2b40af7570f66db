package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Pipeline stages recorded per correlation id.
const (
	StageReceived = "received"
	StageDedup    = "duplicate"
	StageSaved    = "saved"
	StageEnriched = "enriched"
	StageNotified = "notified"
	StageDegraded = "degraded"
)

const statusKeyPrefix = "leadflow:status:"

// PipelineStatus is the cross-request view of one webhook's processing.
type PipelineStatus struct {
	CorrelationID string    `json:"correlation_id"`
	LeadUID       string    `json:"lead_uid,omitempty"`
	Stage         string    `json:"stage"`
	Detail        string    `json:"detail,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type cacheEntry struct {
	status    PipelineStatus
	expiresAt time.Time
}

// StatusCache tracks webhook pipeline progress by correlation id. Entries are
// TTL-bounded: Redis SETEX when available, otherwise a size- and TTL-limited
// in-memory map with eviction on every write. Nothing here grows unbounded.
type StatusCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	maxSize int

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewStatusCache(rdb *redis.Client, ttl time.Duration, maxSize int) *StatusCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &StatusCache{
		rdb:     rdb,
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]cacheEntry),
	}
}

// Set records the current stage for a correlation id. Best effort; status
// tracking never fails a webhook.
func (c *StatusCache) Set(ctx context.Context, status PipelineStatus) {
	status.UpdatedAt = time.Now()

	if c.rdb != nil {
		raw, err := json.Marshal(status)
		if err == nil {
			if err := c.rdb.Set(ctx, statusKeyPrefix+status.CorrelationID, raw, c.ttl).Err(); err == nil {
				return
			}
			logrus.WithError(err).Warn("redis status cache write failed, falling back")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
	c.entries[status.CorrelationID] = cacheEntry{
		status:    status,
		expiresAt: status.UpdatedAt.Add(c.ttl),
	}
}

// Get returns the recorded status for a correlation id, or false when the
// entry never existed or has expired.
func (c *StatusCache) Get(ctx context.Context, correlationID string) (PipelineStatus, bool) {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, statusKeyPrefix+correlationID).Bytes()
		if err == nil {
			var status PipelineStatus
			if json.Unmarshal(raw, &status) == nil {
				return status, true
			}
		} else if err != redis.Nil {
			logrus.WithError(err).Warn("redis status cache read failed")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[correlationID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, correlationID)
		return PipelineStatus{}, false
	}
	return entry.status, true
}

// evictLocked drops expired entries and, if the map is still at capacity,
// the entry closest to expiry. Callers hold c.mu.
func (c *StatusCache) evictLocked() {
	now := time.Now()
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
		}
	}
	if len(c.entries) < c.maxSize {
		return
	}
	var oldestID string
	var oldest time.Time
	for id, entry := range c.entries {
		if oldestID == "" || entry.expiresAt.Before(oldest) {
			oldestID = id
			oldest = entry.expiresAt
		}
	}
	if oldestID != "" {
		delete(c.entries, oldestID)
	}
}
