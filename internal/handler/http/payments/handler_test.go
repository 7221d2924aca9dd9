package payments_http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pos-payments/internal/app/engine"
	"pos-payments/internal/change"
	"pos-payments/internal/domain"
)

type fakeEngine struct {
	processResult engine.Result
	processErr    error
	voidResult    engine.Result
	voidErr       error
	lastTx        *domain.Transaction
}

func (f *fakeEngine) ProcessPayment(_ context.Context, tx *domain.Transaction) (engine.Result, error) {
	f.lastTx = tx
	res := f.processResult
	if res.Transaction == nil {
		res.Transaction = tx
	}
	return res, f.processErr
}

func (f *fakeEngine) VoidTransaction(_ context.Context, tx *domain.Transaction) (engine.Result, error) {
	res := f.voidResult
	if res.Transaction == nil {
		res.Transaction = tx
	}
	return res, f.voidErr
}

type fakeIdem struct {
	claimed   bool
	completed []string
	released  []string
}

func (f *fakeIdem) ClaimOrReject(context.Context, string) (bool, error) { return f.claimed, nil }
func (f *fakeIdem) MarkCompleted(_ context.Context, id string) error {
	f.completed = append(f.completed, id)
	return nil
}
func (f *fakeIdem) Release(_ context.Context, id string) error {
	f.released = append(f.released, id)
	return nil
}

type fakeFinder struct {
	tx  *domain.Transaction
	err error
}

func (f *fakeFinder) GetByID(context.Context, string) (*domain.Transaction, error) {
	return f.tx, f.err
}

func testTill(t *testing.T) *change.Till {
	t.Helper()
	till, err := change.NewTill(map[domain.Money]int{
		domain.Colones(100): 10,
		domain.Colones(10):  10,
		domain.Colones(5):   10,
	})
	require.NoError(t, err)
	return till
}

func postPayment(t *testing.T, h *PaymentHandler, req ProcessPaymentRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
	NewRouter(h).ServeHTTP(rec, r)
	return rec
}

func approvedTransaction(changeDue domain.Money) *domain.Transaction {
	tx := domain.NewTransaction("txn-1", domain.Colones(100), []domain.PaymentLine{
		{Kind: domain.KindCash, Amount: domain.Colones(100) + changeDue, State: domain.LineApproved},
	})
	tx.State = domain.TransactionApproved
	tx.Recalculate()
	return tx
}

func TestProcessPaymentHandler_Success(t *testing.T) {
	eng := &fakeEngine{processResult: engine.Result{
		Success:     true,
		Message:     "payment processed successfully",
		Transaction: approvedTransaction(domain.Colones(15)),
	}}
	idem := &fakeIdem{claimed: true}
	h := NewPaymentHandler(eng, &fakeFinder{}, idem, testTill(t), zap.NewNop())

	rec := postPayment(t, h, ProcessPaymentRequest{
		TransactionID: "txn-1",
		SaleTotal:     int64(domain.Colones(100)),
		Lines: []PaymentLineRequest{
			{Kind: "CASH", Amount: int64(domain.Colones(115))},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProcessPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Receipt, "RECIBO DE PAGO")
	// ₡15 of change: a ₡10 coin and a ₡5 coin.
	assert.Equal(t, domain.Money(0), resp.ChangeShortfall)
	assert.Equal(t, 1, resp.ChangeBreakdown[domain.Colones(10)])
	assert.Equal(t, 1, resp.ChangeBreakdown[domain.Colones(5)])

	assert.Equal(t, []string{"txn-1"}, idem.completed)
	assert.Empty(t, idem.released)
}

func TestProcessPaymentHandler_GeneratesTransactionID(t *testing.T) {
	eng := &fakeEngine{processResult: engine.Result{Success: true}}
	h := NewPaymentHandler(eng, &fakeFinder{}, &fakeIdem{claimed: true}, nil, zap.NewNop())

	rec := postPayment(t, h, ProcessPaymentRequest{
		SaleTotal: int64(domain.Colones(10)),
		Lines:     []PaymentLineRequest{{Kind: "CASH", Amount: int64(domain.Colones(10))}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, eng.lastTx)
	assert.NotEmpty(t, eng.lastTx.ID)
}

func TestProcessPaymentHandler_DuplicateRequest(t *testing.T) {
	eng := &fakeEngine{}
	h := NewPaymentHandler(eng, &fakeFinder{}, &fakeIdem{claimed: false}, nil, zap.NewNop())

	rec := postPayment(t, h, ProcessPaymentRequest{
		TransactionID: "txn-1",
		SaleTotal:     int64(domain.Colones(10)),
		Lines:         []PaymentLineRequest{{Kind: "CASH", Amount: int64(domain.Colones(10))}},
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Nil(t, eng.lastTx)
}

func TestProcessPaymentHandler_ValidationFailure(t *testing.T) {
	verr := &domain.ValidationError{LineIndex: -1, Field: "amount", Reason: "insufficient funds, short by ₡25.00"}
	eng := &fakeEngine{
		processResult: engine.Result{Message: verr.Error()},
		processErr:    verr,
	}
	idem := &fakeIdem{claimed: true}
	h := NewPaymentHandler(eng, &fakeFinder{}, idem, nil, zap.NewNop())

	rec := postPayment(t, h, ProcessPaymentRequest{
		TransactionID: "txn-1",
		SaleTotal:     int64(domain.Colones(100)),
		Lines:         []PaymentLineRequest{{Kind: "CASH", Amount: int64(domain.Colones(75))}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// Failed attempts release the claim so a corrected resubmission works.
	assert.Equal(t, []string{"txn-1"}, idem.released)
	assert.Empty(t, idem.completed)
}

func TestProcessPaymentHandler_RejectionStatus(t *testing.T) {
	rerr := &domain.RejectionError{Failures: []domain.LineFailure{
		{Index: 0, Kind: domain.KindCreditCard, Reason: "card declined"},
	}}
	eng := &fakeEngine{
		processResult: engine.Result{Message: rerr.Error()},
		processErr:    rerr,
	}
	h := NewPaymentHandler(eng, &fakeFinder{}, &fakeIdem{claimed: true}, nil, zap.NewNop())

	rec := postPayment(t, h, ProcessPaymentRequest{
		TransactionID: "txn-1",
		SaleTotal:     int64(domain.Colones(100)),
		Lines:         []PaymentLineRequest{{Kind: "CREDIT_CARD", Amount: int64(domain.Colones(100)), CardLast4: "6467", AuthCode: "A1"}},
	})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	var resp ProcessPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "card declined")
	assert.Empty(t, resp.Receipt)
}

func TestProcessPaymentHandler_MalformedBody(t *testing.T) {
	h := NewPaymentHandler(&fakeEngine{}, &fakeFinder{}, &fakeIdem{claimed: true}, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader([]byte("{not json")))
	NewRouter(h).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoidTransactionHandler(t *testing.T) {
	tx := approvedTransaction(0)
	eng := &fakeEngine{voidResult: engine.Result{Success: true, Message: "transaction voided"}}
	h := NewPaymentHandler(eng, &fakeFinder{tx: tx}, &fakeIdem{claimed: true}, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/payments/txn-1/void", nil)
	NewRouter(h).ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProcessPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestVoidTransactionHandler_NotFound(t *testing.T) {
	h := NewPaymentHandler(&fakeEngine{}, &fakeFinder{err: domain.ErrTransactionNotFound}, &fakeIdem{claimed: true}, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/payments/missing/void", nil)
	NewRouter(h).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
