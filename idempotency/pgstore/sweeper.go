package pgstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sweeper deletes expired records in batches.
type Sweeper struct {
	db        DB
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
}

func NewSweeper(db DB, interval time.Duration, batchSize int, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		db:        db,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Start sweeps once, then every interval until ctx is done.
func (w *Sweeper) Start(ctx context.Context) {
	w.logger.Info("idempotency sweeper started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("idempotency sweeper stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	var total int64
	for ctx.Err() == nil {
		n, err := w.Sweep(ctx)
		if err != nil {
			w.logger.Error("idempotency sweep failed", zap.Error(err))
			return
		}
		total += n
		if n < int64(w.batchSize) {
			break
		}
	}
	if total > 0 {
		w.logger.Info("swept expired idempotency records", zap.Int64("deleted", total))
	}
}

// Sweep deletes one batch and returns the number of rows removed.
func (w *Sweeper) Sweep(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM combo_idempotency
		WHERE key IN (
			SELECT key FROM combo_idempotency
			WHERE expires_at <= now()
			LIMIT $1
		)
	`
	tag, err := w.db.Exec(ctx, query, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency records: %w", err)
	}
	return tag.RowsAffected(), nil
}
