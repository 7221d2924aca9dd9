package payments_http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pos-payments/internal/app/engine"
	"pos-payments/internal/change"
	"pos-payments/internal/domain"
	"pos-payments/internal/idempotency"
	"pos-payments/internal/receipt"
	"pos-payments/internal/util"
)

// TransactionFinder looks up a persisted transaction for the void endpoint.
type TransactionFinder interface {
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
}

type PaymentHandler struct {
	engine engine.PaymentEngine
	finder TransactionFinder
	idem   idempotency.Store
	till   *change.Till
	logger *zap.Logger
}

func NewPaymentHandler(
	e engine.PaymentEngine,
	finder TransactionFinder,
	idem idempotency.Store,
	till *change.Till,
	logger *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{engine: e, finder: finder, idem: idem, till: till, logger: logger}
}

type ExpiryRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type PaymentLineRequest struct {
	Kind       string         `json:"kind"`
	Amount     int64          `json:"amount"` // céntimos
	Reference  string         `json:"reference,omitempty"`
	Bank       string         `json:"bank,omitempty"`
	Holder     string         `json:"holder,omitempty"`
	CardNumber string         `json:"card_number,omitempty"`
	CardLast4  string         `json:"card_last4,omitempty"`
	AuthCode   string         `json:"auth_code,omitempty"`
	Expiry     *ExpiryRequest `json:"expiry,omitempty"`
}

type ProcessPaymentRequest struct {
	TransactionID string               `json:"transaction_id,omitempty"`
	SaleTotal     int64                `json:"sale_total"` // céntimos
	Lines         []PaymentLineRequest `json:"lines"`
	Notes         string               `json:"notes,omitempty"`
}

type ProcessPaymentResponse struct {
	Success         bool                 `json:"success"`
	Message         string               `json:"message"`
	Transaction     *domain.Transaction  `json:"transaction"`
	Receipt         string               `json:"receipt,omitempty"`
	ChangeBreakdown change.Breakdown     `json:"change_breakdown,omitempty"`
	ChangeShortfall domain.Money         `json:"change_shortfall,omitempty"`
}

func (h *PaymentHandler) ProcessPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Invalid request body for ProcessPayment", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transactionID := req.TransactionID
	if transactionID == "" {
		transactionID = util.GenerateUUID()
	}

	claimed, err := h.idem.ClaimOrReject(r.Context(), transactionID)
	if err != nil {
		h.logger.Error("Idempotency store unavailable", zap.String("transaction_id", transactionID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !claimed {
		h.logger.Warn("Duplicate payment request", zap.String("transaction_id", transactionID))
		http.Error(w, domain.ErrDuplicateRequest.Error(), http.StatusConflict)
		return
	}

	tx := domain.NewTransaction(transactionID, domain.Money(req.SaleTotal), toDomainLines(req.Lines))
	tx.Notes = req.Notes

	result, procErr := h.engine.ProcessPayment(r.Context(), tx)

	if result.Success {
		if err := h.idem.MarkCompleted(r.Context(), transactionID); err != nil {
			h.logger.Error("Failed to mark request completed", zap.String("transaction_id", transactionID), zap.Error(err))
		}
	} else {
		// The claim is released so the cashier can resubmit corrected input
		// under the same transaction id.
		if err := h.idem.Release(r.Context(), transactionID); err != nil {
			h.logger.Error("Failed to release idempotency claim", zap.String("transaction_id", transactionID), zap.Error(err))
		}
	}

	resp := ProcessPaymentResponse{
		Success:     result.Success,
		Message:     result.Message,
		Transaction: result.Transaction,
	}
	if result.Success {
		resp.Receipt = receipt.Render(result.Transaction, time.Now())
		if result.Transaction.Change > 0 && h.till != nil {
			resp.ChangeBreakdown, resp.ChangeShortfall = h.proposeChange(result.Transaction.Change)
		}
	}

	writeJSON(w, h.logger, statusFor(result.Success, procErr), resp)
}

// proposeChange computes a drawer breakdown for the change due and commits
// it when the drawer can cover it exactly.
func (h *PaymentHandler) proposeChange(due domain.Money) (change.Breakdown, domain.Money) {
	breakdown, shortfall := change.MakeChange(due, h.till.Snapshot())
	if shortfall == 0 {
		if err := h.till.Commit(breakdown); err != nil {
			// Another sale drained the drawer between snapshot and commit.
			h.logger.Warn("Till commit failed, recomputing breakdown", zap.Error(err))
			breakdown, shortfall = change.MakeChange(due, h.till.Snapshot())
			if shortfall == 0 {
				if err := h.till.Commit(breakdown); err != nil {
					h.logger.Error("Till commit failed twice, leaving change to the cashier", zap.Error(err))
					return nil, due
				}
			}
		}
	}
	return breakdown, shortfall
}

func (h *PaymentHandler) VoidTransactionHandler(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")
	if transactionID == "" {
		http.Error(w, "Transaction ID is required", http.StatusBadRequest)
		return
	}

	tx, err := h.finder.GetByID(r.Context(), transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load transaction for void", zap.String("transaction_id", transactionID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	result, voidErr := h.engine.VoidTransaction(r.Context(), tx)
	resp := ProcessPaymentResponse{
		Success:     result.Success,
		Message:     result.Message,
		Transaction: result.Transaction,
	}
	writeJSON(w, h.logger, statusFor(result.Success, voidErr), resp)
}

func toDomainLines(reqs []PaymentLineRequest) []domain.PaymentLine {
	lines := make([]domain.PaymentLine, len(reqs))
	for i, lr := range reqs {
		line := domain.PaymentLine{
			Kind:       domain.PaymentKind(lr.Kind),
			Amount:     domain.Money(lr.Amount),
			Reference:  lr.Reference,
			Bank:       lr.Bank,
			Holder:     lr.Holder,
			CardNumber: lr.CardNumber,
			CardLast4:  lr.CardLast4,
			AuthCode:   lr.AuthCode,
			State:      domain.LinePending,
		}
		if lr.Expiry != nil {
			line.Expiry = &domain.CardExpiry{Month: lr.Expiry.Month, Year: lr.Expiry.Year}
		}
		lines[i] = line
	}
	return lines
}

func statusFor(success bool, err error) int {
	if success {
		return http.StatusOK
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	var rerr *domain.RejectionError
	if errors.As(err, &rerr) {
		return http.StatusPaymentRequired
	}
	var perr *domain.PersistenceError
	if errors.As(err, &perr) {
		return http.StatusInternalServerError
	}
	return http.StatusConflict
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to write JSON response", zap.Error(err))
	}
}
