package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-payments/internal/domain"
)

// Clock pinned to June 2025 so expiry cases stay stable.
func testValidator() *Validator {
	return NewWithClock(func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	})
}

func TestValidateLine_PerKindRules(t *testing.T) {
	tests := []struct {
		name      string
		line      domain.PaymentLine
		wantField string
	}{
		{
			name: "cash only needs a positive amount",
			line: domain.PaymentLine{Kind: domain.KindCash, Amount: 1000},
		},
		{
			name:      "unknown kind",
			line:      domain.PaymentLine{Kind: "BARTER", Amount: 1000},
			wantField: "kind",
		},
		{
			name:      "zero amount",
			line:      domain.PaymentLine{Kind: domain.KindCash, Amount: 0},
			wantField: "amount",
		},
		{
			name:      "negative amount",
			line:      domain.PaymentLine{Kind: domain.KindCash, Amount: -500},
			wantField: "amount",
		},
		{
			name: "debit card complete",
			line: domain.PaymentLine{
				Kind:      domain.KindDebitCard,
				Amount:    5000,
				CardLast4: "6467",
				AuthCode:  "AUTH-1",
			},
		},
		{
			name:      "card missing last4",
			line:      domain.PaymentLine{Kind: domain.KindCreditCard, Amount: 5000, AuthCode: "A1"},
			wantField: "card_last4",
		},
		{
			name:      "card missing auth code",
			line:      domain.PaymentLine{Kind: domain.KindCreditCard, Amount: 5000, CardLast4: "6467"},
			wantField: "auth_code",
		},
		{
			name: "card with valid PAN",
			line: domain.PaymentLine{
				Kind:       domain.KindCreditCard,
				Amount:     5000,
				CardLast4:  "6467",
				AuthCode:   "A1",
				CardNumber: "4539148803436467",
			},
		},
		{
			name: "card PAN fails checksum",
			line: domain.PaymentLine{
				Kind:       domain.KindCreditCard,
				Amount:     5000,
				CardLast4:  "6468",
				AuthCode:   "A1",
				CardNumber: "4539148803436468",
			},
			wantField: "card_number",
		},
		{
			name: "card PAN too short",
			line: domain.PaymentLine{
				Kind:       domain.KindCreditCard,
				Amount:     5000,
				CardLast4:  "1234",
				AuthCode:   "A1",
				CardNumber: "41111234",
			},
			wantField: "card_number",
		},
		{
			name: "card expired",
			line: domain.PaymentLine{
				Kind:      domain.KindDebitCard,
				Amount:    5000,
				CardLast4: "6467",
				AuthCode:  "A1",
				Expiry:    &domain.CardExpiry{Month: 5, Year: 2025},
			},
			wantField: "expiry",
		},
		{
			name: "card expiring this month is accepted",
			line: domain.PaymentLine{
				Kind:      domain.KindDebitCard,
				Amount:    5000,
				CardLast4: "6467",
				AuthCode:  "A1",
				Expiry:    &domain.CardExpiry{Month: 6, Year: 2025},
			},
		},
		{
			name: "expiry month out of range",
			line: domain.PaymentLine{
				Kind:      domain.KindDebitCard,
				Amount:    5000,
				CardLast4: "6467",
				AuthCode:  "A1",
				Expiry:    &domain.CardExpiry{Month: 13, Year: 2026},
			},
			wantField: "expiry",
		},
		{
			name: "check complete",
			line: domain.PaymentLine{
				Kind:      domain.KindCheck,
				Amount:    20000,
				Reference: "000123",
				Bank:      "BAC",
				Holder:    "Ana Rojas",
			},
		},
		{
			name:      "check missing bank",
			line:      domain.PaymentLine{Kind: domain.KindCheck, Amount: 20000, Reference: "000123", Holder: "Ana Rojas"},
			wantField: "bank",
		},
		{
			name:      "check missing holder",
			line:      domain.PaymentLine{Kind: domain.KindCheck, Amount: 20000, Reference: "000123", Bank: "BAC"},
			wantField: "holder",
		},
		{
			name:      "transfer missing reference",
			line:      domain.PaymentLine{Kind: domain.KindTransfer, Amount: 3000},
			wantField: "reference",
		},
		{
			name: "transfer with reference",
			line: domain.PaymentLine{Kind: domain.KindTransfer, Amount: 3000, Reference: "TRF-99"},
		},
		{
			name: "sinpe with valid local number",
			line: domain.PaymentLine{Kind: domain.KindMobileMoney, Amount: 2500, Reference: "88881234"},
		},
		{
			name: "sinpe with country code",
			line: domain.PaymentLine{Kind: domain.KindMobileMoney, Amount: 2500, Reference: "50688881234"},
		},
		{
			name:      "sinpe with landline prefix",
			line:      domain.PaymentLine{Kind: domain.KindMobileMoney, Amount: 2500, Reference: "12345678"},
			wantField: "reference",
		},
		{
			name:      "sinpe missing number",
			line:      domain.PaymentLine{Kind: domain.KindMobileMoney, Amount: 2500},
			wantField: "reference",
		},
		{
			name: "voucher only needs amount",
			line: domain.PaymentLine{Kind: domain.KindVoucher, Amount: 1500},
		},
		{
			name: "loyalty points only need amount",
			line: domain.PaymentLine{Kind: domain.KindLoyaltyPoints, Amount: 700},
		},
	}

	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := v.ValidateLine(2, tt.line)
			if tt.wantField == "" {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Equal(t, 2, verr.LineIndex)
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	v := testValidator()

	t.Run("no lines", func(t *testing.T) {
		tx := domain.NewTransaction("t1", 1000, nil)
		verr := v.ValidateTransaction(tx)
		require.NotNil(t, verr)
		assert.Equal(t, -1, verr.LineIndex)
		assert.Equal(t, "lines", verr.Field)
	})

	t.Run("non-positive sale total", func(t *testing.T) {
		tx := domain.NewTransaction("t1", 0, []domain.PaymentLine{
			{Kind: domain.KindCash, Amount: 1000},
		})
		verr := v.ValidateTransaction(tx)
		require.NotNil(t, verr)
		assert.Equal(t, "sale_total", verr.Field)
	})

	t.Run("line failure carries its index", func(t *testing.T) {
		tx := domain.NewTransaction("t1", 5000, []domain.PaymentLine{
			{Kind: domain.KindCash, Amount: 3000},
			{Kind: domain.KindTransfer, Amount: 2000},
		})
		verr := v.ValidateTransaction(tx)
		require.NotNil(t, verr)
		assert.Equal(t, 1, verr.LineIndex)
		assert.Equal(t, "reference", verr.Field)
	})

	t.Run("insufficient funds names the shortfall", func(t *testing.T) {
		tx := domain.NewTransaction("t1", domain.Colones(100), []domain.PaymentLine{
			{Kind: domain.KindCash, Amount: domain.Colones(40)},
			{Kind: domain.KindVoucher, Amount: domain.Colones(35)},
		})
		verr := v.ValidateTransaction(tx)
		require.NotNil(t, verr)
		assert.Equal(t, -1, verr.LineIndex)
		assert.Contains(t, verr.Reason, "insufficient funds")
		assert.Contains(t, verr.Reason, "₡25.00")
	})

	t.Run("exact tender passes", func(t *testing.T) {
		tx := domain.NewTransaction("t1", domain.Colones(100), []domain.PaymentLine{
			{Kind: domain.KindCash, Amount: domain.Colones(100)},
		})
		assert.Nil(t, v.ValidateTransaction(tx))
	})

	t.Run("overpayment passes", func(t *testing.T) {
		tx := domain.NewTransaction("t1", domain.Colones(100), []domain.PaymentLine{
			{Kind: domain.KindCash, Amount: domain.Colones(120)},
		})
		assert.Nil(t, v.ValidateTransaction(tx))
	})
}
