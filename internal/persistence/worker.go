package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PayLedger/internal/observability"

	"github.com/rs/zerolog"
)

// AuditWorker drains the outcome channel and batch-writes to Postgres.
// It runs independently from the engine loop: sends into its channel are
// non-blocking at the call site only if the caller chooses so; by default
// the engine loop blocks, so a stalled database applies backpressure
// rather than losing audit rows.
type AuditWorker struct {
	writer       *AuditWriter
	inputChan    <-chan OutcomeRow
	batchSize    int
	flushTimeout time.Duration
	log          zerolog.Logger
	metrics      *observability.Metrics
}

func NewAuditWorker(
	db *sql.DB,
	inputChan <-chan OutcomeRow,
	batchSize int,
	flushTimeout time.Duration,
	log zerolog.Logger,
	metrics *observability.Metrics,
) *AuditWorker {
	return &AuditWorker{
		writer:       NewAuditWriter(db),
		inputChan:    inputChan,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		log:          log,
		metrics:      metrics,
	}
}

// Run starts the worker loop. It batches incoming rows and flushes either
// when the batch is full or the flush timeout expires. Blocks until ctx is
// cancelled or the channel is closed.
func (aw *AuditWorker) Run(ctx context.Context) error {
	batch := make([]OutcomeRow, 0, aw.batchSize)

	timer := time.NewTimer(aw.flushTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Graceful shutdown: flush remaining
			if len(batch) > 0 {
				if err := aw.flush(context.Background(), batch); err != nil {
					aw.log.Error().Err(err).Msg("final flush failed")
				}
			}
			return ctx.Err()

		case row, ok := <-aw.inputChan:
			if !ok {
				if len(batch) > 0 {
					if err := aw.flush(context.Background(), batch); err != nil {
						aw.log.Error().Err(err).Msg("final flush failed")
					}
				}
				return nil
			}

			batch = append(batch, row)

			if len(batch) >= aw.batchSize {
				if err := aw.flushWithRetry(ctx, batch); err != nil {
					aw.log.Error().Err(err).Msg("batch flush failed after retries")
				}
				batch = batch[:0]
				timer.Reset(aw.flushTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				if err := aw.flushWithRetry(ctx, batch); err != nil {
					aw.log.Error().Err(err).Msg("timeout flush failed after retries")
				}
				batch = batch[:0]
			}
			timer.Reset(aw.flushTimeout)
		}
	}
}

// flushWithRetry attempts to flush with capped exponential backoff.
// The worker never drops rows: it retries until the write succeeds or the
// context is cancelled, in which case one final flush runs on a background
// context so shutdown does not lose the batch.
func (aw *AuditWorker) flushWithRetry(ctx context.Context, rows []OutcomeRow) error {
	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			aw.log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Int("rows", len(rows)).
				Msg("audit flush retry")
			select {
			case <-ctx.Done():
				finalErr := aw.flush(context.Background(), rows)
				if finalErr != nil {
					return fmt.Errorf("final flush on shutdown failed: %w", finalErr)
				}
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		err := aw.flush(ctx, rows)
		if err == nil {
			if attempt > 0 {
				aw.log.Info().Int("retries", attempt).Msg("audit flush succeeded")
			}
			return nil
		}

		if aw.metrics != nil {
			aw.metrics.AuditRetry.Inc()
		}
	}
}

func (aw *AuditWorker) flush(ctx context.Context, rows []OutcomeRow) error {
	start := time.Now()

	tx, err := aw.writer.db.BeginTx(ctx, nil)
	if err != nil {
		if aw.metrics != nil {
			aw.metrics.AuditErrors.WithLabelValues("tx_begin").Inc()
		}
		return err
	}
	defer tx.Rollback()

	if err := aw.writer.WriteOutcomeBatch(ctx, tx, rows); err != nil {
		if aw.metrics != nil {
			aw.metrics.AuditErrors.WithLabelValues("write_outcomes").Inc()
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if aw.metrics != nil {
			aw.metrics.AuditErrors.WithLabelValues("tx_commit").Inc()
		}
		return err
	}

	if aw.metrics != nil {
		aw.metrics.AuditBatchDur.Observe(time.Since(start).Seconds())
		aw.metrics.AuditBatchSize.Observe(float64(len(rows)))
		aw.metrics.AuditRowsWritten.Add(float64(len(rows)))
	}

	return nil
}

// GetWriter returns the underlying writer, used for snapshot persistence
// at shutdown.
func (aw *AuditWorker) GetWriter() *AuditWriter {
	return aw.writer
}
