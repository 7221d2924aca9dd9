package change

import (
	"sort"

	"pos-payments/internal/domain"
)

// Breakdown maps a denomination (in céntimos) to the count of pieces used.
type Breakdown map[domain.Money]int

// Total sums the breakdown back into an amount.
func (b Breakdown) Total() domain.Money {
	var total domain.Money
	for denom, count := range b {
		total += denom * domain.Money(count)
	}
	return total
}

// MakeChange breaks amount into till denominations, strictly greedily:
// largest denomination first, limited by the available count, until the
// amount is exhausted or no denomination fits. Whatever cannot be covered
// comes back as shortfall; the caller decides whether to accept inexact
// change or reject the tender. Greedy is the contract here, not coin-change
// optimality — real till denominations make greedy optimal in practice.
func MakeChange(amount domain.Money, till map[domain.Money]int) (Breakdown, domain.Money) {
	breakdown := make(Breakdown)
	if amount <= 0 {
		return breakdown, 0
	}

	denoms := make([]domain.Money, 0, len(till))
	for denom := range till {
		if denom > 0 {
			denoms = append(denoms, denom)
		}
	}
	sort.Slice(denoms, func(i, j int) bool { return denoms[i] > denoms[j] })

	remaining := amount
	for _, denom := range denoms {
		if remaining <= 0 {
			break
		}
		available := till[denom]
		if available <= 0 {
			continue
		}
		use := int(remaining / denom)
		if use > available {
			use = available
		}
		if use > 0 {
			breakdown[denom] = use
			remaining -= denom * domain.Money(use)
		}
	}

	return breakdown, remaining
}
