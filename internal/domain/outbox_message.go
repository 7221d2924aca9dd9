package domain

import "time"

type OutboxMessageStatus string

const (
	OutboxStatusPending OutboxMessageStatus = "PENDING"
	OutboxStatusSent    OutboxMessageStatus = "SENT"
	OutboxStatusFailed  OutboxMessageStatus = "FAILED"
)

// OutboxMessage is a completion event waiting to be published to Kafka. It
// is written in the same database transaction as the payment transaction it
// describes, so an event exists iff the transaction was durably recorded.
type OutboxMessage struct {
	ID            string
	TransactionID string
	MessageType   string
	Payload       []byte
	Status        OutboxMessageStatus
	CreatedAt     time.Time
	SentAt        *time.Time
}
