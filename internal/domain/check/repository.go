package check

import (
	"context"
	"time"

	"partstock/internal/core/id"
	"partstock/internal/domain"
)

// ListFilter extends the common list filter with check-specific predicates.
type ListFilter struct {
	domain.ListFilter

	// Status filters by lifecycle state
	Status *Status

	// DateFrom/DateTo bound the creation time (inclusive)
	DateFrom *time.Time
	DateTo   *time.Time
}

// Repository defines persistence operations for inventory checks.
// Items are owned by their check: Create persists the header together
// with its items, and loads always return the check with items attached.
type Repository interface {
	// Create persists a new check with its items
	Create(ctx context.Context, c *Check) error

	// GetByID loads a check with items
	GetByID(ctx context.Context, checkID id.ID) (*Check, error)

	// GetForUpdate loads a check with items, holding a row lock on the
	// header. Must be called inside a transaction; the lock serializes
	// concurrent status changes and count recording on one check.
	GetForUpdate(ctx context.Context, checkID id.ID) (*Check, error)

	// Update persists header changes with an optimistic locking check
	Update(ctx context.Context, c *Check) error

	// GetItemForUpdate loads a single item with a row lock.
	// Must be called inside a transaction; used to make adjustment
	// posting safe against concurrent apply invocations.
	GetItemForUpdate(ctx context.Context, itemID id.ID) (*Item, error)

	// UpdateItem persists changes to a single item
	UpdateItem(ctx context.Context, item *Item) error

	// List returns check headers (without items) matching the filter
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Check], error)
}
