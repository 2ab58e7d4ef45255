package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lucasvieira/agendou/libs/db"
	"github.com/lucasvieira/agendou/services/booking-service/internal/outbox"
	"github.com/lucasvieira/agendou/services/booking-service/internal/storage"
)

// WaitlistWorker periodically sweeps pending waitlist entries whose
// desired date has arrived and emits a follow-up event for each, so the
// relay can nudge the customer.
type WaitlistWorker struct {
	pool      *db.Pool
	repo      *storage.WaitlistRepository
	outbox    *outbox.Repository
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type WaitlistWorkerConfig struct {
	Interval  time.Duration
	BatchSize int
}

func NewWaitlistWorker(pool *db.Pool, repo *storage.WaitlistRepository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg WaitlistWorkerConfig) *WaitlistWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &WaitlistWorker{
		pool:      pool,
		repo:      repo,
		outbox:    outboxRepo,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
	}
}

func (w *WaitlistWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error("waitlist follow-up batch failed", "err", err)
			}
		}
	}
}

func (w *WaitlistWorker) processBatch(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	entries, err := w.repo.FetchDueFollowups(ctx, tx, time.Now().UTC(), w.batchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return tx.Commit(ctx)
	}

	var done []string
	for _, e := range entries {
		payload, err := json.Marshal(map[string]any{
			"entry_id":        e.ID,
			"organization_id": e.OrgID,
			"customer_id":     e.CustomerID,
			"customer_name":   e.CustomerName,
			"customer_phone":  e.CustomerPhone,
			"service_id":      e.ServiceID,
			"desired_date":    e.DesiredDate.Format("2006-01-02"),
		})
		if err != nil {
			w.logger.Error("waitlist payload marshal failed", "entry_id", e.ID, "err", err)
			continue
		}
		if err := w.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "waitlist_entry",
			AggregateID:   e.ID,
			EventType:     "booking.waitlist.followup.due.v1",
			Payload:       payload,
		}); err != nil {
			return err
		}
		done = append(done, e.ID)
	}

	if err := w.repo.MarkFollowedUp(ctx, tx, done); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	w.logger.Info("waitlist follow-ups queued", "count", len(done))
	return nil
}
