// Package store implements the engine's persistence contract on postgres:
// the transaction row and its completion event land in one database
// transaction, so an event exists iff the payment was durably recorded.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pos-payments/internal/domain"
	"pos-payments/internal/repository/outbox_repo"
	"pos-payments/internal/repository/transactions_repo"
	"pos-payments/internal/util"
)

type PostgresStore struct {
	db           *sql.DB
	transactions transactions_repo.TransactionRepository
	outbox       outbox_repo.OutboxRepository
	logger       *zap.Logger
}

func NewPostgresStore(
	db *sql.DB,
	transactions transactions_repo.TransactionRepository,
	outbox outbox_repo.OutboxRepository,
	logger *zap.Logger,
) *PostgresStore {
	return &PostgresStore{
		db:           db,
		transactions: transactions,
		outbox:       outbox,
		logger:       logger,
	}
}

func (s *PostgresStore) SaveCompleted(ctx context.Context, t *domain.Transaction) error {
	return s.inTx(ctx, t.ID, func(tx *sql.Tx) error {
		if err := s.transactions.CreateTx(ctx, tx, t); err != nil {
			return err
		}
		return s.enqueueCompletionEvent(ctx, tx, t)
	})
}

func (s *PostgresStore) MarkVoided(ctx context.Context, t *domain.Transaction) error {
	return s.inTx(ctx, t.ID, func(tx *sql.Tx) error {
		if err := s.transactions.UpdateStateTx(ctx, tx, t); err != nil {
			return err
		}
		return s.enqueueCompletionEvent(ctx, tx, t)
	})
}

// GetByID reads a transaction outside any explicit database transaction.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.transactions.GetByIDTx(ctx, s.db, id)
}

func (s *PostgresStore) enqueueCompletionEvent(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	event := domain.TransactionCompletedEvent{
		TransactionID: t.ID,
		SaleTotal:     t.SaleTotal,
		TotalPaid:     t.TotalPaid,
		Change:        t.Change,
		State:         string(t.State),
		LineCount:     len(t.Lines),
		Timestamp:     time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize completion event for transaction %s: %w", t.ID, err)
	}

	msg := &domain.OutboxMessage{
		ID:            util.GenerateUUID(),
		TransactionID: t.ID,
		MessageType:   domain.MessageTypeTransactionCompleted,
		Payload:       payload,
		Status:        domain.OutboxStatusPending,
		CreatedAt:     time.Now(),
	}
	return s.outbox.CreateMessageTx(ctx, tx, msg)
}

func (s *PostgresStore) inTx(ctx context.Context, transactionID string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("Failed to begin database transaction",
			zap.String("transaction_id", transactionID), zap.Error(err))
		return fmt.Errorf("failed to begin database transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered panic during store write, rolling back",
				zap.String("transaction_id", transactionID), zap.Any("panic", r))
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back database transaction",
				zap.String("transaction_id", transactionID), zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit database transaction",
			zap.String("transaction_id", transactionID), zap.Error(err))
		return fmt.Errorf("failed to commit database transaction: %w", err)
	}
	return nil
}
