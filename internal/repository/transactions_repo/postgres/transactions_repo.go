package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pos-payments/internal/domain"
)

const uniqueViolation = "23505"

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) CreateTx(ctx context.Context, querier domain.Querier, t *domain.Transaction) error {
	lines, err := json.Marshal(t.Lines)
	if err != nil {
		return fmt.Errorf("failed to serialize payment lines for transaction %s: %w", t.ID, err)
	}

	query := `
		INSERT INTO payment_transactions (id, sale_total, lines, total_paid, change_due, state, created_at, completed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = querier.ExecContext(ctx, query,
		t.ID,
		int64(t.SaleTotal),
		lines,
		int64(t.TotalPaid),
		int64(t.Change),
		string(t.State),
		t.CreatedAt,
		t.CompletedAt,
		t.Notes,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.ErrTransactionExists
		}
		return fmt.Errorf("failed to create transaction %s: %w", t.ID, err)
	}
	return nil
}

func (r *TransactionRepository) UpdateStateTx(ctx context.Context, querier domain.Querier, t *domain.Transaction) error {
	lines, err := json.Marshal(t.Lines)
	if err != nil {
		return fmt.Errorf("failed to serialize payment lines for transaction %s: %w", t.ID, err)
	}

	query := `
		UPDATE payment_transactions
		SET lines = $1, total_paid = $2, change_due = $3, state = $4, completed_at = $5
		WHERE id = $6
	`
	res, err := querier.ExecContext(ctx, query,
		lines,
		int64(t.TotalPaid),
		int64(t.Change),
		string(t.State),
		t.CompletedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", t.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for transaction update: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) GetByIDTx(ctx context.Context, querier domain.Querier, id string) (*domain.Transaction, error) {
	query := `
		SELECT id, sale_total, lines, total_paid, change_due, state, created_at, completed_at, notes
		FROM payment_transactions
		WHERE id = $1
	`
	t := &domain.Transaction{}
	var (
		saleTotal, totalPaid, changeDue int64
		state                           string
		lines                           []byte
		completedAt                     sql.NullTime
	)
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&saleTotal,
		&lines,
		&totalPaid,
		&changeDue,
		&state,
		&t.CreatedAt,
		&completedAt,
		&t.Notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}

	if err := json.Unmarshal(lines, &t.Lines); err != nil {
		return nil, fmt.Errorf("failed to deserialize payment lines for transaction %s: %w", id, err)
	}
	t.SaleTotal = domain.Money(saleTotal)
	t.TotalPaid = domain.Money(totalPaid)
	t.Change = domain.Money(changeDue)
	t.State = domain.TransactionState(state)
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return t, nil
}
