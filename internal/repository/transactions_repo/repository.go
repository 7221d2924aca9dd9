package transactions_repo

import (
	"context"

	"pos-payments/internal/domain"
)

type TransactionRepository interface {
	CreateTx(ctx context.Context, querier domain.Querier, tx *domain.Transaction) error
	UpdateStateTx(ctx context.Context, querier domain.Querier, tx *domain.Transaction) error
	GetByIDTx(ctx context.Context, querier domain.Querier, id string) (*domain.Transaction, error)
}
