package worker

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"leadflow/notify"
	"leadflow/store"
)

const (
	drainInterval  = time.Minute
	drainBatchSize = 20
	maxAttempts    = 5
)

// DeadLetterWorker periodically replays notifications that failed inline.
// Retries are bounded; an entry that keeps failing is reported to Sentry and
// dropped rather than circulating forever.
type DeadLetterWorker struct {
	deadLetters *store.DeadLetterStore
	leads       *store.LeadStore
	notifier    notify.Notifier
}

func NewDeadLetterWorker(deadLetters *store.DeadLetterStore, leads *store.LeadStore, notifier notify.Notifier) *DeadLetterWorker {
	return &DeadLetterWorker{
		deadLetters: deadLetters,
		leads:       leads,
		notifier:    notifier,
	}
}

func (w *DeadLetterWorker) Start(ctx context.Context) {
	logrus.Info("Starting dead-letter worker...")
	ticker := time.NewTicker(drainInterval)

	for {
		select {
		case <-ticker.C:
			w.drain(ctx)
		case <-ctx.Done():
			logrus.Info("Stopping dead-letter worker...")
			ticker.Stop()
			return
		}
	}
}

// drain replays up to drainBatchSize entries. It stops at the first delivery
// failure: if the chat platform is still down there is no point burning the
// rest of the batch.
func (w *DeadLetterWorker) drain(ctx context.Context) {
	for i := 0; i < drainBatchSize; i++ {
		entry, ok := w.deadLetters.Pop(ctx)
		if !ok {
			return
		}

		log := logrus.WithFields(logrus.Fields{
			"lead_uid": entry.LeadUID,
			"attempts": entry.Attempts,
		})

		if err := w.replay(ctx, entry); err != nil {
			entry.Attempts++
			if entry.Attempts >= maxAttempts {
				log.WithError(err).Error("dead-letter entry exhausted retries, dropping")
				sentry.CaptureException(err)
				w.deadLetters.Ack(ctx, entry)
				continue
			}
			log.WithError(err).Warn("dead-letter replay failed, requeueing")
			// Requeue first, then settle the old row, so a crash in between
			// duplicates the entry rather than losing it.
			w.deadLetters.Push(ctx, entry)
			w.deadLetters.Ack(ctx, entry)
			return
		}
		w.deadLetters.Ack(ctx, entry)
		log.Info("dead-letter entry replayed")
	}
}

func (w *DeadLetterWorker) replay(ctx context.Context, entry store.DeadLetterEntry) error {
	lead, err := w.leads.FindByUID(ctx, entry.LeadUID)
	if err != nil {
		return err
	}
	return w.notifier.NotifyNewLead(ctx, lead)
}
