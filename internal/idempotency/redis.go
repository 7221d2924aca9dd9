// Package idempotency deduplicates retried payment requests by transaction
// id. A POS terminal that times out and retries must not charge the
// customer twice; the engine itself stays oblivious to retries.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusInProgress = "IN_PROGRESS"
	statusCompleted  = "COMPLETED"

	// An IN_PROGRESS claim expires quickly so a crashed handler does not
	// wedge the transaction id forever.
	inProgressExpiry = 30 * time.Second
	completedExpiry  = 24 * time.Hour
)

type Store interface {
	ClaimOrReject(ctx context.Context, transactionID string) (bool, error)
	MarkCompleted(ctx context.Context, transactionID string) error
	Release(ctx context.Context, transactionID string) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// ClaimOrReject atomically claims a transaction id for processing. It
// returns false when the id is already claimed or completed, meaning the
// request is a duplicate.
func (s *RedisStore) ClaimOrReject(ctx context.Context, transactionID string) (bool, error) {
	key := txnKey(transactionID)

	set, err := s.client.SetNX(ctx, key, statusInProgress, inProgressExpiry).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX error: %w", err)
	}
	return set, nil
}

// MarkCompleted records a terminal outcome so later retries short-circuit.
func (s *RedisStore) MarkCompleted(ctx context.Context, transactionID string) error {
	if err := s.client.Set(ctx, txnKey(transactionID), statusCompleted, completedExpiry).Err(); err != nil {
		return fmt.Errorf("redis SET error: %w", err)
	}
	return nil
}

// Release frees a claim after a failed attempt so the caller can retry
// with corrected input.
func (s *RedisStore) Release(ctx context.Context, transactionID string) error {
	if err := s.client.Del(ctx, txnKey(transactionID)).Err(); err != nil {
		return fmt.Errorf("redis DEL error: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func txnKey(transactionID string) string {
	return fmt.Sprintf("txn:%s", transactionID)
}
