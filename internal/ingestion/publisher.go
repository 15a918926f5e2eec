package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PayLedger/internal/observability"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// OutcomePublisher publishes processing outcomes to NATS for downstream
// consumers (fraud review, reconciliation). Subjects follow the pattern
// pay.ledger.outcomes.{kind}.
type OutcomePublisher struct {
	js        jetstream.JetStream
	inputChan <-chan PublishableOutcome
	log       zerolog.Logger
	metrics   *observability.Metrics
}

// PublishableOutcome is a processed record's outcome ready for publishing.
type PublishableOutcome struct {
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Client    uint16    `json:"client"`
	Tx        uint32    `json:"tx"`
	Applied   bool      `json:"applied"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewOutcomePublisher(js jetstream.JetStream, inputChan <-chan PublishableOutcome, log zerolog.Logger, metrics *observability.Metrics) *OutcomePublisher {
	return &OutcomePublisher{
		js:        js,
		inputChan: inputChan,
		log:       log,
		metrics:   metrics,
	}
}

// Run starts the publisher loop. Publish failures are logged and skipped:
// the audit trail in Postgres remains the durable record.
func (op *OutcomePublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case out, ok := <-op.inputChan:
			if !ok {
				return nil
			}

			if err := op.publish(ctx, out); err != nil {
				op.log.Warn().Err(err).Uint32("tx", out.Tx).Msg("outcome publish failed")
				if op.metrics != nil {
					op.metrics.PublishFailures.Inc()
				}
			}
		}
	}
}

func (op *OutcomePublisher) publish(ctx context.Context, out PublishableOutcome) error {
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", OutcomeSubjectPrefix, out.Kind)
	_, err = op.js.Publish(ctx, subject, data)
	return err
}
