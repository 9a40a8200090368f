package product

import (
	"context"
	"fmt"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
	"partstock/internal/core/tx"
	"partstock/internal/domain"
	"partstock/pkg/logger"
)

// Service provides business operations for the product catalog.
// Stock quantities are read here but never written; all quantity
// mutations go through the stock ledger.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new product catalog service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsBySKU(ctx, p.SKU)
	if err != nil {
		return fmt.Errorf("check sku: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "sku", p.SKU)
	return nil
}

// GetByID retrieves a product by ID.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// Update modifies catalog fields of an existing product.
// Quantity is deliberately not updatable here.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	p.Touch()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, p)
	})
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}

// ListLowStock returns active products at or below their reorder threshold.
func (s *Service) ListLowStock(ctx context.Context) ([]*Product, error) {
	active := true
	result, err := s.repo.List(ctx, ListFilter{
		ListFilter:   domain.ListFilter{OrderBy: "sku", Limit: 0},
		ActiveOnly:   &active,
		LowStockOnly: true,
	})
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}
