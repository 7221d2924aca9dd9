// Package authorizer decides accept/reject for individual validated payment
// lines and provides the compensating reversal. The card-network decision is
// pluggable; everything else resolves locally.
package authorizer

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"pos-payments/internal/change"
	"pos-payments/internal/domain"
)

// Informational flags attached to approved lines whose settlement is not
// immediate. Consumers may display them; nothing branches on them.
const (
	ExtraPendingClearance     = "pendingClearance"
	ExtraRequiresVerification = "requiresVerification"
	ExtraRequiresConfirmation = "requiresConfirmation"
	ExtraCardBrand            = "cardBrand"
)

// Decision is the card network's answer for one line.
type Decision struct {
	Approved bool
	AuthCode string
	Reason   string
}

// CardDecider is the pluggable decision point standing in for the card
// network. Production swaps in a real client; tests inject deterministic
// approve/reject sequences.
type CardDecider interface {
	Decide(ctx context.Context, line domain.PaymentLine) (Decision, error)
}

// CardVoider undoes a previously approved card authorization on the
// network. Optional: when absent, reversal is a pure state change.
type CardVoider interface {
	Void(ctx context.Context, line domain.PaymentLine) error
}

// Result is one line's authorization outcome. A false Approved with a
// Reason is a business decline; transport failures surface as errors from
// Authorize instead.
type Result struct {
	Line     domain.PaymentLine
	Approved bool
	Reason   string
}

// LineAuthorizer authorizes and reverses single payment lines. Card calls
// go through a circuit breaker so a dead processor fails fast instead of
// stalling every sale in the queue.
type LineAuthorizer struct {
	cards      CardDecider
	voider     CardVoider
	breaker    *gobreaker.CircuitBreaker
	cardFeeBps int64
	logger     *zap.Logger
}

func New(cards CardDecider, voider CardVoider, cardFeeBasisPoints int64, logger *zap.Logger) *LineAuthorizer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "card-network",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Card network circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &LineAuthorizer{
		cards:      cards,
		voider:     voider,
		breaker:    breaker,
		cardFeeBps: cardFeeBasisPoints,
		logger:     logger,
	}
}

// Authorize decides one already-validated line. The returned line carries
// the new state and any authorizer-populated fields. A non-nil error means
// the external processor could not be consulted at all (transport failure
// or open breaker), not that the line was declined.
func (a *LineAuthorizer) Authorize(ctx context.Context, line domain.PaymentLine) (Result, error) {
	line.State = domain.LineProcessing

	switch line.Kind {
	case domain.KindCash:
		// Cash was fully validated up front; nothing external to consult.
		line.State = domain.LineApproved
		return Result{Line: line, Approved: true}, nil

	case domain.KindDebitCard, domain.KindCreditCard:
		return a.authorizeCard(ctx, line)

	case domain.KindCheck:
		// A check is a receivable, not cash in hand, until cleared out-of-band.
		line.State = domain.LineApproved
		line.SetExtra(ExtraPendingClearance, true)
		return Result{Line: line, Approved: true}, nil

	case domain.KindTransfer:
		line.State = domain.LineApproved
		line.SetExtra(ExtraRequiresVerification, true)
		return Result{Line: line, Approved: true}, nil

	case domain.KindMobileMoney:
		line.State = domain.LineApproved
		line.SetExtra(ExtraRequiresConfirmation, true)
		return Result{Line: line, Approved: true}, nil

	default:
		// StoreCredit, Voucher, LoyaltyPoints, Crypto: balance and limit
		// checks belong to external collaborators, not this engine.
		line.State = domain.LineApproved
		return Result{Line: line, Approved: true}, nil
	}
}

func (a *LineAuthorizer) authorizeCard(ctx context.Context, line domain.PaymentLine) (Result, error) {
	out, err := a.breaker.Execute(func() (any, error) {
		return a.cards.Decide(ctx, line)
	})
	if err != nil {
		line.State = domain.LineRejected
		a.logger.Error("Card network unreachable",
			zap.String("kind", string(line.Kind)),
			zap.String("card_last4", line.CardLast4),
			zap.Error(err),
		)
		return Result{Line: line}, fmt.Errorf("card network unavailable: %w", err)
	}

	decision := out.(Decision)
	if !decision.Approved {
		line.State = domain.LineRejected
		reason := decision.Reason
		if reason == "" {
			reason = "card declined"
		}
		a.logger.Warn("Card declined",
			zap.String("kind", string(line.Kind)),
			zap.String("card_last4", line.CardLast4),
			zap.String("reason", reason),
		)
		return Result{Line: line, Reason: reason}, nil
	}

	line.State = domain.LineApproved
	if decision.AuthCode != "" {
		line.AuthCode = decision.AuthCode
	}
	if line.Kind == domain.KindCreditCard && a.cardFeeBps > 0 {
		line.Fee = change.ApplyRate(line.Amount, a.cardFeeBps, change.Nearest)
	}
	return Result{Line: line, Approved: true}, nil
}

// Reverse compensates a previously approved line, setting it Cancelled.
// Idempotent: reversing a line that is already Cancelled (or never reached
// Approved) is a no-op, so rollback can be retried safely.
func (a *LineAuthorizer) Reverse(ctx context.Context, line domain.PaymentLine) (domain.PaymentLine, error) {
	if line.State != domain.LineApproved {
		return line, nil
	}

	if line.Kind.IsCard() && a.voider != nil {
		if err := a.voider.Void(ctx, line); err != nil {
			return line, fmt.Errorf("card void failed: %w", err)
		}
	}

	line.State = domain.LineCancelled
	a.logger.Info("Payment line reversed",
		zap.String("kind", string(line.Kind)),
		zap.String("amount", line.Amount.String()),
	)
	return line, nil
}
