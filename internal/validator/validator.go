// Package validator holds the pure, pre-authorization checks for payment
// lines and whole transactions. Nothing here performs I/O; failures come
// back as values, never panics.
package validator

import (
	"fmt"
	"time"

	"pos-payments/internal/domain"
)

type Validator struct {
	now func() time.Time
}

func New() *Validator {
	return &Validator{now: time.Now}
}

// NewWithClock injects the clock used for expiry checks. Tests pin it.
func NewWithClock(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// ValidateLine checks one payment line in isolation against the rules of
// its kind. index is only used to name the line in the failure reason.
func (v *Validator) ValidateLine(index int, line domain.PaymentLine) *domain.ValidationError {
	if !line.Kind.IsValid() {
		return lineErr(index, "kind", fmt.Sprintf("unknown payment kind %q", string(line.Kind)))
	}
	if line.Amount <= 0 {
		return lineErr(index, "amount", "amount must be greater than zero")
	}

	switch line.Kind {
	case domain.KindCash:
		return nil

	case domain.KindDebitCard, domain.KindCreditCard:
		return v.validateCard(index, line)

	case domain.KindCheck:
		return v.validateCheck(index, line)

	case domain.KindTransfer:
		if line.Reference == "" {
			return lineErr(index, "reference", "transfer reference is required")
		}
		return nil

	case domain.KindMobileMoney:
		if line.Reference == "" {
			return lineErr(index, "reference", "SINPE Móvil phone number is required")
		}
		if !ValidSINPENumber(line.Reference) {
			return lineErr(index, "reference", fmt.Sprintf("invalid SINPE Móvil phone number %q", line.Reference))
		}
		return nil

	case domain.KindStoreCredit, domain.KindVoucher, domain.KindLoyaltyPoints, domain.KindCrypto:
		// Structurally these only need a positive amount; balance and limit
		// checks belong to the external collaborator that owns them.
		return nil
	}
	return nil
}

func (v *Validator) validateCard(index int, line domain.PaymentLine) *domain.ValidationError {
	if len(line.CardLast4) < 4 {
		return lineErr(index, "card_last4", "last 4 digits of the card are required")
	}
	if line.AuthCode == "" {
		return lineErr(index, "auth_code", "authorization code is required")
	}
	if line.CardNumber != "" {
		digits := digitsOnly(line.CardNumber)
		if len(digits) < 13 || len(digits) > 19 {
			return lineErr(index, "card_number", "card number must have between 13 and 19 digits")
		}
		if !LuhnValid(digits) {
			return lineErr(index, "card_number", "card number failed checksum")
		}
	}
	if line.Expiry != nil {
		if err := v.validateExpiry(index, *line.Expiry); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateCheck(index int, line domain.PaymentLine) *domain.ValidationError {
	if line.Reference == "" {
		return lineErr(index, "reference", "check number is required")
	}
	if line.Bank == "" {
		return lineErr(index, "bank", "issuing bank is required")
	}
	if line.Holder == "" {
		return lineErr(index, "holder", "check holder is required")
	}
	if line.Expiry != nil {
		if err := v.validateExpiry(index, *line.Expiry); err != nil {
			return err
		}
	}
	return nil
}

// validateExpiry accepts any month/year not strictly before the current
// calendar month.
func (v *Validator) validateExpiry(index int, exp domain.CardExpiry) *domain.ValidationError {
	if exp.Month < 1 || exp.Month > 12 {
		return lineErr(index, "expiry", fmt.Sprintf("expiry month %d is out of range", exp.Month))
	}
	now := v.now()
	if exp.Year < now.Year() || (exp.Year == now.Year() && time.Month(exp.Month) < now.Month()) {
		return lineErr(index, "expiry", fmt.Sprintf("expiry %02d/%d is in the past", exp.Month, exp.Year))
	}
	return nil
}

// ValidateTransaction runs the transaction-level rules: lines exist, the
// sale total is positive, every line passes its own validation, and the
// tendered sum covers the sale total.
func (v *Validator) ValidateTransaction(tx *domain.Transaction) *domain.ValidationError {
	if len(tx.Lines) == 0 {
		return txErr("lines", "no payment methods specified")
	}
	if tx.SaleTotal <= 0 {
		return txErr("sale_total", "sale total must be greater than zero")
	}

	var tendered domain.Money
	for i, line := range tx.Lines {
		if err := v.ValidateLine(i, line); err != nil {
			return err
		}
		tendered += line.Amount
	}

	if tendered < tx.SaleTotal {
		short := tx.SaleTotal - tendered
		return txErr("amount", fmt.Sprintf("insufficient funds, short by %s", short))
	}
	return nil
}

func lineErr(index int, field, reason string) *domain.ValidationError {
	return &domain.ValidationError{LineIndex: index, Field: field, Reason: reason}
}

func txErr(field, reason string) *domain.ValidationError {
	return &domain.ValidationError{LineIndex: -1, Field: field, Reason: reason}
}
