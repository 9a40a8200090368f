package transaction

import (
	"context"
	"time"

	"partstock/internal/core/id"
	"partstock/internal/domain"
)

// ListFilter extends the common list filter with transaction-specific
// predicates.
type ListFilter struct {
	domain.ListFilter

	// ProductID limits the result to movements of one product
	ProductID *id.ID

	// Type filters by movement direction
	Type *Type

	// Status filters by approval state
	Status *Status

	// DateFrom/DateTo bound the creation time (inclusive)
	DateFrom *time.Time
	DateTo   *time.Time
}

// Repository defines persistence operations for transactions.
type Repository interface {
	// Create persists a new transaction
	Create(ctx context.Context, t *Transaction) error

	// GetByID loads a transaction by ID
	GetByID(ctx context.Context, transactionID id.ID) (*Transaction, error)

	// GetForUpdate loads a transaction with a row lock.
	// Must be called inside a transaction.
	GetForUpdate(ctx context.Context, transactionID id.ID) (*Transaction, error)

	// Update persists changes with an optimistic locking check
	Update(ctx context.Context, t *Transaction) error

	// List returns transactions matching the filter, newest first by default
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transaction], error)
}
