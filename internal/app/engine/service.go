// Package engine is the transaction orchestrator: it composes validation,
// per-line authorization and compensating reversal into the all-or-nothing
// multi-payment protocol, and owns the transaction state machine.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pos-payments/internal/authorizer"
	"pos-payments/internal/domain"
	"pos-payments/internal/validator"
)

// LineAuthorizer is the engine's view of the per-line accept/reject and
// reversal operations.
type LineAuthorizer interface {
	Authorize(ctx context.Context, line domain.PaymentLine) (authorizer.Result, error)
	Reverse(ctx context.Context, line domain.PaymentLine) (domain.PaymentLine, error)
}

// TransactionStore is the write contract with the persistence collaborator:
// one durable write per completed transaction. The engine never reads back.
type TransactionStore interface {
	SaveCompleted(ctx context.Context, tx *domain.Transaction) error
	MarkVoided(ctx context.Context, tx *domain.Transaction) error
}

// Result is what a ProcessPayment or Void call hands back to the caller.
// Transaction is always populated, terminal, and fully reversed on failure
// paths (unless the message flags an incomplete reversal).
type Result struct {
	Success     bool
	Message     string
	Transaction *domain.Transaction
}

type PaymentEngine interface {
	ProcessPayment(ctx context.Context, tx *domain.Transaction) (Result, error)
	VoidTransaction(ctx context.Context, tx *domain.Transaction) (Result, error)
}

type paymentEngine struct {
	validator        *validator.Validator
	auth             LineAuthorizer
	store            TransactionStore
	reversalAttempts int
	reversalBackoff  time.Duration
	logger           *zap.Logger
}

func NewPaymentEngine(
	v *validator.Validator,
	auth LineAuthorizer,
	store TransactionStore,
	reversalAttempts int,
	reversalBackoff time.Duration,
	logger *zap.Logger,
) PaymentEngine {
	if reversalAttempts < 1 {
		reversalAttempts = 1
	}
	return &paymentEngine{
		validator:        v,
		auth:             auth,
		store:            store,
		reversalAttempts: reversalAttempts,
		reversalBackoff:  reversalBackoff,
		logger:           logger,
	}
}

// ProcessPayment drives one transaction to a terminal state. The single
// guarantee that matters: the only observable success is "every line
// approved and durably recorded"; every other path leaves the till and the
// customer as they were before the call.
func (e *paymentEngine) ProcessPayment(ctx context.Context, tx *domain.Transaction) (Result, error) {
	if tx.IsTerminal() {
		err := fmt.Errorf("transaction %s is already in terminal state %s", tx.ID, tx.State)
		return Result{Message: err.Error(), Transaction: tx}, err
	}

	tx.State = domain.TransactionValidating
	if verr := e.validator.ValidateTransaction(tx); verr != nil {
		tx.State = domain.TransactionRejected
		e.logger.Warn("Transaction failed validation",
			zap.String("transaction_id", tx.ID),
			zap.String("reason", verr.Reason),
		)
		return Result{Message: verr.Error(), Transaction: tx}, verr
	}

	tx.State = domain.TransactionProcessing
	var approved []int
	var failure *domain.LineFailure
	for i := range tx.Lines {
		tx.Lines[i].State = domain.LineProcessing

		res, err := e.auth.Authorize(ctx, tx.Lines[i])
		if err != nil {
			// Transport failure consulting the processor; converted into a
			// rejection of this line so it cannot escape mid-authorization.
			tx.Lines[i].State = domain.LineRejected
			failure = &domain.LineFailure{
				Index:  i,
				Kind:   tx.Lines[i].Kind,
				Reason: fmt.Sprintf("authorization unavailable: %v", err),
			}
			break
		}

		tx.Lines[i] = res.Line
		if !res.Approved {
			failure = &domain.LineFailure{Index: i, Kind: tx.Lines[i].Kind, Reason: res.Reason}
			break
		}
		approved = append(approved, i)
	}

	if failure != nil {
		e.logger.Warn("Payment line rejected, rolling back approved lines",
			zap.String("transaction_id", tx.ID),
			zap.Int("line", failure.Index+1),
			zap.String("reason", failure.Reason),
			zap.Int("approved_lines", len(approved)),
		)
		incomplete := e.reverseLines(ctx, tx, approved)
		tx.State = domain.TransactionRejected
		tx.Recalculate()

		rerr := &domain.RejectionError{
			Failures:           []domain.LineFailure{*failure},
			ReversalIncomplete: incomplete,
		}
		return Result{Message: rerr.Error(), Transaction: tx}, rerr
	}

	// Derived totals are always recomputed from the approved lines, never
	// trusted from a running accumulator.
	tx.Recalculate()
	completedAt := time.Now()
	tx.CompletedAt = &completedAt
	tx.State = domain.TransactionApproved

	if err := e.store.SaveCompleted(ctx, tx); err != nil {
		// A transaction that cannot be durably recorded must not stay charged.
		e.logger.Error("Failed to persist approved transaction, rolling back",
			zap.String("transaction_id", tx.ID),
			zap.Error(err),
		)
		incomplete := e.reverseLines(ctx, tx, approved)
		tx.State = domain.TransactionRejected
		tx.CompletedAt = nil
		tx.Recalculate()

		perr := &domain.PersistenceError{Err: err, ReversalIncomplete: incomplete}
		return Result{Message: perr.Error(), Transaction: tx}, perr
	}

	e.logger.Info("Transaction processed successfully",
		zap.String("transaction_id", tx.ID),
		zap.String("sale_total", tx.SaleTotal.String()),
		zap.String("total_paid", tx.TotalPaid.String()),
		zap.String("change", tx.Change.String()),
		zap.Int("lines", len(tx.Lines)),
	)
	return Result{Success: true, Message: "payment processed successfully", Transaction: tx}, nil
}

// VoidTransaction is the explicit post-hoc Approved -> Cancelled operation.
// It reverses every approved line and records the state change.
func (e *paymentEngine) VoidTransaction(ctx context.Context, tx *domain.Transaction) (Result, error) {
	if tx.State != domain.TransactionApproved {
		err := fmt.Errorf("only approved transactions can be voided, transaction %s is %s", tx.ID, tx.State)
		return Result{Message: err.Error(), Transaction: tx}, err
	}

	var approved []int
	for i := range tx.Lines {
		if tx.Lines[i].State == domain.LineApproved {
			approved = append(approved, i)
		}
	}

	incomplete := e.reverseLines(ctx, tx, approved)
	tx.State = domain.TransactionCancelled
	tx.Recalculate()

	if err := e.store.MarkVoided(ctx, tx); err != nil {
		perr := &domain.PersistenceError{Err: err, ReversalIncomplete: incomplete}
		return Result{Message: perr.Error(), Transaction: tx}, perr
	}

	msg := "transaction voided"
	if incomplete {
		msg += " (reversal incomplete, manual reconciliation required)"
	}
	e.logger.Info("Transaction voided",
		zap.String("transaction_id", tx.ID),
		zap.Bool("reversal_incomplete", incomplete),
	)
	if incomplete {
		return Result{Message: msg, Transaction: tx}, &domain.RejectionError{ReversalIncomplete: true}
	}
	return Result{Success: true, Message: msg, Transaction: tx}, nil
}

// reverseLines compensates the given approved lines, retrying each reversal
// with doubling backoff. An unreversed charge is the worst failure mode, so
// exhausted retries are reported (true) rather than swallowed; the affected
// line keeps its Approved state for manual reconciliation.
func (e *paymentEngine) reverseLines(ctx context.Context, tx *domain.Transaction, indexes []int) bool {
	incomplete := false
	for _, i := range indexes {
		backoff := e.reversalBackoff
		var lastErr error
		for attempt := 1; attempt <= e.reversalAttempts; attempt++ {
			reversed, err := e.auth.Reverse(ctx, tx.Lines[i])
			if err == nil {
				tx.Lines[i] = reversed
				lastErr = nil
				break
			}
			lastErr = err
			e.logger.Warn("Reversal attempt failed",
				zap.String("transaction_id", tx.ID),
				zap.Int("line", i+1),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if attempt < e.reversalAttempts && backoff > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(backoff):
				}
				backoff *= 2
			}
		}
		if lastErr != nil {
			incomplete = true
			rerr := &domain.ReversalError{Index: i, Kind: tx.Lines[i].Kind, Err: lastErr}
			e.logger.Error("Reversal exhausted retries, manual reconciliation required",
				zap.String("transaction_id", tx.ID),
				zap.Int("line", i+1),
				zap.Error(rerr),
			)
		}
	}
	return incomplete
}
