package domain

// PaymentKind identifies a payment instrument. The set is closed: adding a
// kind means adding a validator rule and an authorizer branch.
type PaymentKind string

const (
	KindCash          PaymentKind = "CASH"
	KindDebitCard     PaymentKind = "DEBIT_CARD"
	KindCreditCard    PaymentKind = "CREDIT_CARD"
	KindTransfer      PaymentKind = "TRANSFER"
	KindCheck         PaymentKind = "CHECK"
	KindVoucher       PaymentKind = "VOUCHER"
	KindStoreCredit   PaymentKind = "STORE_CREDIT"
	KindMobileMoney   PaymentKind = "SINPE_MOVIL"
	KindCrypto        PaymentKind = "CRYPTO"
	KindLoyaltyPoints PaymentKind = "LOYALTY_POINTS"
)

// Kinds lists every supported payment kind.
func Kinds() []PaymentKind {
	return []PaymentKind{
		KindCash, KindDebitCard, KindCreditCard, KindTransfer, KindCheck,
		KindVoucher, KindStoreCredit, KindMobileMoney, KindCrypto, KindLoyaltyPoints,
	}
}

// IsValid reports whether k is one of the supported kinds.
func (k PaymentKind) IsValid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// IsCard reports whether k settles through the card network.
func (k PaymentKind) IsCard() bool {
	return k == KindDebitCard || k == KindCreditCard
}

type PaymentLineState string

const (
	LinePending    PaymentLineState = "PENDING"
	LineProcessing PaymentLineState = "PROCESSING"
	LineApproved   PaymentLineState = "APPROVED"
	LineRejected   PaymentLineState = "REJECTED"
	LineCancelled  PaymentLineState = "CANCELLED"
	LineRefunded   PaymentLineState = "REFUNDED"
)

// CardExpiry is a calendar month boundary for cards and post-dated checks.
type CardExpiry struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// PaymentLine is one instrument applied to a transaction. Which optional
// fields are meaningful depends on Kind: Reference holds a check number,
// transfer reference or SINPE phone; Bank and Holder belong to checks;
// CardLast4 and AuthCode belong to cards.
type PaymentLine struct {
	Kind      PaymentKind      `json:"kind"`
	Amount    Money            `json:"amount"`
	Reference string           `json:"reference,omitempty"`
	Bank      string           `json:"bank,omitempty"`
	Holder    string           `json:"holder,omitempty"`
	CardLast4 string           `json:"card_last4,omitempty"`
	AuthCode  string           `json:"auth_code,omitempty"`
	Expiry    *CardExpiry      `json:"expiry,omitempty"`
	State     PaymentLineState `json:"state"`
	Fee       Money            `json:"fee"`

	// CardNumber optionally carries a full PAN for pre-authorization flows.
	// It is only ever read by the Luhn check and must never be serialized.
	CardNumber string `json:"-"`

	// Extra carries informational flags set by the authorizer (for example
	// pending clearance on a check). Never used for control flow.
	Extra map[string]any `json:"extra,omitempty"`
}

// SetExtra records an informational flag, allocating the map on first use.
func (l *PaymentLine) SetExtra(key string, value any) {
	if l.Extra == nil {
		l.Extra = make(map[string]any)
	}
	l.Extra[key] = value
}
