package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partstock/internal/core/id"
	"partstock/internal/domain"
	"partstock/internal/domain/transaction"
)

var _ transaction.Repository = (*TransactionRepo)(nil)

// TransactionRepo is the PostgreSQL repository for inventory transactions.
type TransactionRepo struct {
	repoBase[transaction.Transaction]
}

// NewTransactionRepo creates a transaction repository.
func NewTransactionRepo(txm *TxManager) *TransactionRepo {
	return &TransactionRepo{
		repoBase: newRepoBase[transaction.Transaction](txm, "inventory_transactions"),
	}
}

// Create persists a new transaction.
func (r *TransactionRepo) Create(ctx context.Context, t *transaction.Transaction) error {
	return r.insert(ctx, t)
}

// GetByID loads a transaction by ID.
func (r *TransactionRepo) GetByID(ctx context.Context, transactionID id.ID) (*transaction.Transaction, error) {
	return r.getByID(ctx, transactionID, false)
}

// GetForUpdate loads a transaction with a row lock.
func (r *TransactionRepo) GetForUpdate(ctx context.Context, transactionID id.ID) (*transaction.Transaction, error) {
	return r.getByID(ctx, transactionID, true)
}

// Update persists changes with an optimistic locking check.
func (r *TransactionRepo) Update(ctx context.Context, t *transaction.Transaction) error {
	return r.update(ctx, t)
}

// List returns transactions matching the filter.
func (r *TransactionRepo) List(ctx context.Context, filter transaction.ListFilter) (domain.ListResult[*transaction.Transaction], error) {
	result := domain.ListResult[*transaction.Transaction]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"reference": pattern},
		})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.DateTo})
	}

	total, err := r.count(ctx, q)
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	orderBy, err := r.parseOrderBy(filter.OrderBy, "created_at DESC")
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	if err := r.selectMany(ctx, q, &result.Items); err != nil {
		return result, err
	}
	return result, nil
}
