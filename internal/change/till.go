package change

import (
	"fmt"
	"sync"

	"pos-payments/internal/domain"
)

// ValidDenominations is the Costa Rican bill and coin set a drawer may
// hold, in céntimos.
var ValidDenominations = []domain.Money{
	domain.Colones(50000), domain.Colones(20000), domain.Colones(10000),
	domain.Colones(5000), domain.Colones(2000), domain.Colones(1000),
	domain.Colones(500), domain.Colones(100), domain.Colones(50),
	domain.Colones(25), domain.Colones(10), domain.Colones(5),
}

// Till is the shared denomination inventory of one register. MakeChange
// computes against an immutable Snapshot; Commit is the single serialized
// step that applies a proposed breakdown to the physical counts. Two
// concurrent sales therefore never draw the same pieces twice.
type Till struct {
	mu     sync.Mutex
	counts map[domain.Money]int
}

// NewTill builds a till from denomination counts, rejecting denominations
// outside the valid set and negative counts.
func NewTill(counts map[domain.Money]int) (*Till, error) {
	owned := make(map[domain.Money]int, len(counts))
	for denom, count := range counts {
		if !validDenomination(denom) {
			return nil, fmt.Errorf("invalid denomination %s", denom)
		}
		if count < 0 {
			return nil, fmt.Errorf("negative count %d for denomination %s", count, denom)
		}
		owned[denom] = count
	}
	return &Till{counts: owned}, nil
}

func validDenomination(denom domain.Money) bool {
	for _, d := range ValidDenominations {
		if denom == d {
			return true
		}
	}
	return false
}

// Snapshot copies the current counts for a pure MakeChange computation.
func (t *Till) Snapshot() map[domain.Money]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := make(map[domain.Money]int, len(t.counts))
	for denom, count := range t.counts {
		snap[denom] = count
	}
	return snap
}

// Total reports the drawer value.
func (t *Till) Total() domain.Money {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total domain.Money
	for denom, count := range t.counts {
		total += denom * domain.Money(count)
	}
	return total
}

// Commit removes a proposed breakdown from the drawer. It fails without
// changing anything if any denomination no longer has enough pieces, which
// happens when another sale committed between Snapshot and Commit.
func (t *Till) Commit(b Breakdown) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for denom, use := range b {
		if t.counts[denom] < use {
			return fmt.Errorf("till has %d of %s, need %d", t.counts[denom], denom, use)
		}
	}
	for denom, use := range b {
		t.counts[denom] -= use
	}
	return nil
}

// Deposit adds received pieces to the drawer.
func (t *Till) Deposit(denom domain.Money, count int) error {
	if !validDenomination(denom) {
		return fmt.Errorf("invalid denomination %s", denom)
	}
	if count < 0 {
		return fmt.Errorf("negative count %d for denomination %s", count, denom)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[denom] += count
	return nil
}
