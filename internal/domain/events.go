package domain

import "time"

// TransactionCompletedEvent is published through the outbox once a
// transaction reaches a persisted terminal state. Amounts are céntimos.
type TransactionCompletedEvent struct {
	TransactionID string    `json:"transaction_id"`
	SaleTotal     Money     `json:"sale_total"`
	TotalPaid     Money     `json:"total_paid"`
	Change        Money     `json:"change"`
	State         string    `json:"state"`
	LineCount     int       `json:"line_count"`
	Timestamp     time.Time `json:"timestamp"`
}

const MessageTypeTransactionCompleted = "TransactionCompleted"
