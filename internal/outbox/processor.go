// Package outbox polls the payment_outbox table and publishes pending
// completion events to Kafka.
package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	kafka_infra "pos-payments/internal/infrastructure/kafka"
	"pos-payments/internal/repository/outbox_repo"
)

const batchSize = 10

type Processor struct {
	outboxRepo   outbox_repo.OutboxRepository
	producer     kafka_infra.Producer
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *zap.Logger
}

func NewProcessor(
	outboxRepo outbox_repo.OutboxRepository,
	producer kafka_infra.Producer,
	pollInterval time.Duration,
	pollTimeout time.Duration,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		outboxRepo:   outboxRepo,
		producer:     producer,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		logger:       logger,
	}
}

// Start runs the poll loop until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("Starting outbox processor", zap.Duration("poll_interval", p.pollInterval))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopping.")
			return
		case <-ticker.C:
			p.processPending(ctx)
		}
	}
}

func (p *Processor) processPending(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	messages, err := p.outboxRepo.GetPendingMessages(queryCtx, batchSize)
	cancel()
	if err != nil {
		p.logger.Error("Failed to get pending outbox messages", zap.Error(err))
		return
	}
	if len(messages) == 0 {
		return
	}

	p.logger.Info("Found pending outbox messages", zap.Int("count", len(messages)))

	var sent []string
	var failed []string
	for _, msg := range messages {
		if err := p.producer.Produce(ctx, msg.TransactionID, msg.Payload); err != nil {
			p.logger.Error("Failed to publish outbox message",
				zap.String("message_id", msg.ID),
				zap.String("transaction_id", msg.TransactionID),
				zap.Error(err))
			failed = append(failed, msg.ID)
			continue
		}
		sent = append(sent, msg.ID)
	}

	if err := p.outboxRepo.MarkMessagesAsSent(ctx, sent); err != nil {
		// Next poll re-sends; consumers must tolerate duplicate events.
		p.logger.Error("Failed to mark outbox messages as sent", zap.Error(err))
	}
	if err := p.outboxRepo.MarkMessagesAsFailed(ctx, failed); err != nil {
		p.logger.Error("Failed to mark outbox messages as failed", zap.Error(err))
	}
}
