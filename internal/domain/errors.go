package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrTransactionNotFound = errors.New("transaction not found")
var ErrTransactionExists = errors.New("transaction already recorded")
var ErrDuplicateRequest = errors.New("duplicate payment request")

// ValidationError reports a structural or business-rule violation detected
// before any authorization attempt. LineIndex is -1 for transaction-level
// failures. Always recoverable by resubmitting corrected input.
type ValidationError struct {
	LineIndex int
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.LineIndex < 0 {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("payment %d: validation failed: %s", e.LineIndex+1, e.Reason)
}

// LineFailure names one rejected payment line.
type LineFailure struct {
	Index  int
	Kind   PaymentKind
	Reason string
}

func (f LineFailure) String() string {
	return fmt.Sprintf("payment %d (%s): %s", f.Index+1, f.Kind, f.Reason)
}

// RejectionError reports that one or more lines were declined by their
// authorizer. Co-submitted lines that had already been approved were
// reversed; ReversalIncomplete flags that at least one of those reversals
// itself failed and manual reconciliation is required.
type RejectionError struct {
	Failures           []LineFailure
	ReversalIncomplete bool
}

func (e *RejectionError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.String()
	}
	msg := "payments rejected: " + strings.Join(msgs, "; ")
	if e.ReversalIncomplete {
		msg += " (reversal incomplete, manual reconciliation required)"
	}
	return msg
}

// PersistenceError reports that a fully-approved transaction could not be
// durably recorded. Every approved line was reversed before surfacing it.
type PersistenceError struct {
	Err                error
	ReversalIncomplete bool
}

func (e *PersistenceError) Error() string {
	msg := fmt.Sprintf("transaction could not be recorded: %v", e.Err)
	if e.ReversalIncomplete {
		msg += " (reversal incomplete, manual reconciliation required)"
	}
	return msg
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ReversalError reports that a compensating reversal failed after retries.
// The affected line may still be charged on the external processor.
type ReversalError struct {
	Index int
	Kind  PaymentKind
	Err   error
}

func (e *ReversalError) Error() string {
	return fmt.Sprintf("reversal of payment %d (%s) failed: %v", e.Index+1, e.Kind, e.Err)
}

func (e *ReversalError) Unwrap() error { return e.Err }
