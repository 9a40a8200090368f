// Package ledger provides the stock ledger: the single mutation point for
// product quantities. Every stock change is expressed as a signed delta
// applied atomically with a before/after snapshot.
package ledger

import (
	"context"
	"fmt"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
	"partstock/pkg/logger"
)

// Repository defines the persistence operations the ledger needs.
// Implemented by the product repository in infrastructure.
type Repository interface {
	// GetQuantityForUpdate reads the current quantity with a row lock.
	// Must be called inside a transaction; the lock is held until commit,
	// serializing concurrent applies on the same product.
	GetQuantityForUpdate(ctx context.Context, productID id.ID) (int64, error)

	// SetQuantity persists the new quantity for a product.
	SetQuantity(ctx context.Context, productID id.ID, quantity int64) error
}

// Application is the before/after snapshot of a single delta apply.
// Callers record it on the originating transaction for audit.
type Application struct {
	PreviousQuantity int64
	NewQuantity      int64
}

// Service applies signed stock deltas to products.
type Service struct {
	repo Repository
}

// NewService creates a new stock ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ApplyDelta applies a signed quantity delta to a product and returns the
// before/after pair. Fails with INSUFFICIENT_STOCK if the delta would drive
// the quantity negative; in that case nothing is written.
//
// Must be called inside the caller's transaction: the read-check-write is
// serialized per product by the row lock taken in GetQuantityForUpdate, so
// applies on different products never block each other.
func (s *Service) ApplyDelta(ctx context.Context, productID id.ID, delta int64) (Application, error) {
	previous, err := s.repo.GetQuantityForUpdate(ctx, productID)
	if err != nil {
		return Application{}, fmt.Errorf("get quantity for %s: %w", productID, err)
	}

	next := previous + delta
	if next < 0 {
		return Application{}, apperror.NewInsufficientStock(productID.String(), -delta, previous)
	}

	if err := s.repo.SetQuantity(ctx, productID, next); err != nil {
		return Application{}, fmt.Errorf("set quantity for %s: %w", productID, err)
	}

	logger.Debug(ctx, "stock delta applied",
		"product_id", productID,
		"delta", delta,
		"previous", previous,
		"new", next,
	)

	return Application{PreviousQuantity: previous, NewQuantity: next}, nil
}
