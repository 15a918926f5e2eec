package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// NATSSubscriber subscribes to the transaction subject and feeds records
// into the engine loop via recordChan. Producers may be concurrent; the
// channel serializes them into the single-writer engine.
type NATSSubscriber struct {
	js         jetstream.JetStream
	recordChan chan<- RawRecord
	log        zerolog.Logger
	consumers  []jetstream.ConsumeContext
}

const (
	// TxStream holds inbound transaction records.
	TxStream  = "PAY_TRANSACTIONS"
	TxSubject = "pay.tx.>"

	// OutcomeStream holds outbound processing outcomes.
	OutcomeStream        = "PAY_LEDGER_OUTCOMES"
	OutcomeSubjectPrefix = "pay.ledger.outcomes"

	txConsumerName = "payledger-tx"
)

func NewNATSSubscriber(js jetstream.JetStream, recordChan chan<- RawRecord, log zerolog.Logger) *NATSSubscriber {
	return &NATSSubscriber{
		js:         js,
		recordChan: recordChan,
		log:        log,
	}
}

// Subscribe creates the durable JetStream consumer for the transaction
// subject. Explicit ACK, max_deliver=5, ack_wait=30s. The engine loop
// acks via AckFunc once the record's outcome is queued for persistence;
// a slow engine shows up as AckWait redeliveries, not silent loss.
func (ns *NATSSubscriber) Subscribe(ctx context.Context) error {
	consumer, err := ns.js.CreateOrUpdateConsumer(ctx, TxStream, jetstream.ConsumerConfig{
		Durable:       txConsumerName,
		FilterSubject: TxSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", txConsumerName, err)
	}

	consumerContext, err := consumer.Consume(func(msg jetstream.Msg) {
		raw := RawRecord{
			Subject:   msg.Subject(),
			Data:      msg.Data(),
			Timestamp: time.Now(),
			AckFunc:   func() { msg.Ack() },
			NakFunc:   func() { msg.Nak() },
		}

		select {
		case ns.recordChan <- raw:
			// Queued for the engine loop
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", txConsumerName, err)
	}

	ns.consumers = append(ns.consumers, consumerContext)
	ns.log.Info().Str("subject", TxSubject).Str("consumer", txConsumerName).Msg("subscribed")

	return nil
}

// EnsureStreams creates the required JetStream streams if they don't exist.
// Streams use FileStorage, retention=Limits, max_age=72h.
func EnsureStreams(ctx context.Context, js jetstream.JetStream, log zerolog.Logger) error {
	streams := []jetstream.StreamConfig{
		{
			Name:      TxStream,
			Subjects:  []string{TxSubject},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      OutcomeStream,
			Subjects:  []string{OutcomeSubjectPrefix + ".>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
	}

	for _, cfg := range streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		log.Info().Str("stream", cfg.Name).Msg("ensured stream")
	}

	return nil
}

// Stop gracefully stops all consumers.
func (ns *NATSSubscriber) Stop() {
	for _, cc := range ns.consumers {
		cc.Stop()
	}
	ns.log.Info().Msg("NATS subscribers stopped")
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string, log zerolog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
