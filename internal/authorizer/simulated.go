package authorizer

import (
	"context"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"pos-payments/internal/domain"
)

// SimulatedCardDecider approves a fixed fraction of card authorizations.
// It stands in for the card network during development and exercises the
// rollback paths in tests; production wiring replaces it with a real client.
type SimulatedCardDecider struct {
	approveRate float64
	randFloat   func() float64
}

// NewSimulatedCardDecider builds a decider approving roughly approveRate
// of requests, e.g. 0.95.
func NewSimulatedCardDecider(approveRate float64) *SimulatedCardDecider {
	return &SimulatedCardDecider{
		approveRate: approveRate,
		randFloat:   rand.Float64,
	}
}

func (d *SimulatedCardDecider) Decide(_ context.Context, _ domain.PaymentLine) (Decision, error) {
	if d.randFloat() < d.approveRate {
		return Decision{
			Approved: true,
			AuthCode: "SIM-" + strings.ToUpper(uuid.NewString()[:8]),
		}, nil
	}
	return Decision{Reason: "card declined by processor"}, nil
}

// StaticCardDecider returns a fixed sequence of decisions, then repeats the
// last one. Deterministic stand-in for tests.
type StaticCardDecider struct {
	Decisions []Decision
	next      int
}

func (d *StaticCardDecider) Decide(_ context.Context, _ domain.PaymentLine) (Decision, error) {
	if len(d.Decisions) == 0 {
		return Decision{Approved: true, AuthCode: "STATIC"}, nil
	}
	decision := d.Decisions[d.next]
	if d.next < len(d.Decisions)-1 {
		d.next++
	}
	return decision, nil
}
