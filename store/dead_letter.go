package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadflow/models"
)

const deadLetterKey = "leadflow:deadletter"

// DeadLetterEntry is one failed downstream notification held for replay.
type DeadLetterEntry struct {
	Kind     string    `json:"kind"` // notify, reply
	LeadUID  string    `json:"lead_uid"`
	Payload  string    `json:"payload"`
	FailedAt time.Time `json:"failed_at"`
	Attempts int       `json:"attempts"`

	// rowID ties the entry back to its database row so Ack can settle it
	// after the replay outcome is known.
	rowID uint
}

// DeadLetterStore queues failed notifications: to a Redis list when Redis is
// available, otherwise to a size-bounded in-memory slice mirrored into the
// database so entries survive a restart.
type DeadLetterStore struct {
	rdb *redis.Client
	db  *gorm.DB
	cap int

	mu     sync.Mutex
	memory []DeadLetterEntry
}

func NewDeadLetterStore(rdb *redis.Client, db *gorm.DB, capacity int) *DeadLetterStore {
	if capacity <= 0 {
		capacity = 500
	}
	return &DeadLetterStore{rdb: rdb, db: db, cap: capacity}
}

// Push appends an entry for later replay. Push never fails the caller: a lead
// whose notification could not be queued is still a saved lead.
func (s *DeadLetterStore) Push(ctx context.Context, entry DeadLetterEntry) {
	if entry.FailedAt.IsZero() {
		entry.FailedAt = time.Now()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		logrus.WithError(err).Error("dead-letter entry not serializable, dropping")
		return
	}

	if s.rdb != nil {
		pipe := s.rdb.Pipeline()
		pipe.LPush(ctx, deadLetterKey, raw)
		pipe.LTrim(ctx, deadLetterKey, 0, int64(s.cap)-1)
		if _, err := pipe.Exec(ctx); err == nil {
			return
		} else {
			logrus.WithError(err).Warn("redis dead-letter push failed, falling back")
		}
	}

	if s.db != nil {
		row := models.DeadLetter{
			Kind:     entry.Kind,
			Payload:  string(raw),
			Attempts: entry.Attempts,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err == nil {
			return
		} else {
			logrus.WithError(err).Warn("database dead-letter push failed, keeping in memory")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.memory) >= s.cap {
		// Drop the oldest entry; the list is bounded by design.
		s.memory = s.memory[1:]
	}
	s.memory = append(s.memory, entry)
}

// Pop returns the oldest entry, or false when the list is empty. Database
// rows are not settled here: they stay undelivered until Ack, so a crash
// between pop and replay re-serves the entry instead of losing it. The store
// assumes a single consumer that calls Ack (or requeues) before popping again.
func (s *DeadLetterStore) Pop(ctx context.Context) (DeadLetterEntry, bool) {
	if s.rdb != nil {
		raw, err := s.rdb.RPop(ctx, deadLetterKey).Bytes()
		if err == nil {
			var entry DeadLetterEntry
			if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
				return entry, true
			}
			logrus.Warn("discarding malformed dead-letter entry")
		} else if err != redis.Nil {
			logrus.WithError(err).Warn("redis dead-letter pop failed")
		}
	}

	if s.db != nil {
		var row models.DeadLetter
		err := s.db.WithContext(ctx).
			Where("delivered = ?", false).
			Order("created_at ASC").
			First(&row).Error
		if err == nil {
			var entry DeadLetterEntry
			if jsonErr := json.Unmarshal([]byte(row.Payload), &entry); jsonErr == nil {
				entry.rowID = row.ID
				return entry, true
			}
			// Unreadable payload: settle the row so it stops blocking the queue.
			logrus.Warn("discarding malformed dead-letter row")
			s.settle(ctx, row.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.memory) == 0 {
		return DeadLetterEntry{}, false
	}
	entry := s.memory[0]
	s.memory = s.memory[1:]
	return entry, true
}

// Ack settles a popped entry once its replay outcome is decided: delivered,
// requeued as a fresh entry, or dropped for good. Entries popped from Redis or
// memory were already removed, so Ack is a no-op for them.
func (s *DeadLetterStore) Ack(ctx context.Context, entry DeadLetterEntry) {
	if entry.rowID == 0 || s.db == nil {
		return
	}
	s.settle(ctx, entry.rowID)
}

func (s *DeadLetterStore) settle(ctx context.Context, rowID uint) {
	err := s.db.WithContext(ctx).
		Model(&models.DeadLetter{}).
		Where("id = ?", rowID).
		Update("delivered", true).Error
	if err != nil {
		logrus.WithError(err).Warn("failed to settle dead-letter row")
	}
}

// Len reports the number of queued entries across backends (best effort).
func (s *DeadLetterStore) Len(ctx context.Context) int {
	total := 0
	if s.rdb != nil {
		if n, err := s.rdb.LLen(ctx, deadLetterKey).Result(); err == nil {
			total += int(n)
		}
	}
	if s.db != nil {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.DeadLetter{}).
			Where("delivered = ?", false).Count(&n).Error; err == nil {
			total += int(n)
		}
	}
	s.mu.Lock()
	total += len(s.memory)
	s.mu.Unlock()
	return total
}
