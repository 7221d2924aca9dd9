package domain

import "time"

type TransactionState string

const (
	TransactionPending    TransactionState = "PENDING"
	TransactionValidating TransactionState = "VALIDATING"
	TransactionProcessing TransactionState = "PROCESSING"
	TransactionApproved   TransactionState = "APPROVED"
	TransactionRejected   TransactionState = "REJECTED"
	TransactionCancelled  TransactionState = "CANCELLED"
)

// Transaction is a multi-method payment against a single sale total.
// TotalPaid and Change are derived: they are always recomputed from the
// approved lines via Recalculate and never accumulated incrementally.
type Transaction struct {
	ID          string           `json:"id"`
	SaleTotal   Money            `json:"sale_total"`
	Lines       []PaymentLine    `json:"lines"`
	TotalPaid   Money            `json:"total_paid"`
	Change      Money            `json:"change"`
	State       TransactionState `json:"state"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// NewTransaction builds a pending transaction around the caller-supplied
// sale total and payment lines. Structural rules are the validator's job.
func NewTransaction(id string, saleTotal Money, lines []PaymentLine) *Transaction {
	for i := range lines {
		if lines[i].State == "" {
			lines[i].State = LinePending
		}
	}
	return &Transaction{
		ID:        id,
		SaleTotal: saleTotal,
		Lines:     lines,
		State:     TransactionPending,
		CreatedAt: time.Now(),
	}
}

// Recalculate rederives TotalPaid and Change from the approved lines.
func (t *Transaction) Recalculate() {
	var paid Money
	for _, line := range t.Lines {
		if line.State == LineApproved {
			paid += line.Amount
		}
	}
	t.TotalPaid = paid
	if paid > t.SaleTotal {
		t.Change = paid - t.SaleTotal
	} else {
		t.Change = 0
	}
}

// IsTerminal reports whether the transaction reached a final state.
func (t *Transaction) IsTerminal() bool {
	switch t.State {
	case TransactionApproved, TransactionRejected, TransactionCancelled:
		return true
	}
	return false
}
