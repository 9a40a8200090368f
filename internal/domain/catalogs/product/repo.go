package product

import (
	"context"

	"partstock/internal/core/id"
	"partstock/internal/domain"
)

// ListFilter extends the common filter with product-specific options.
type ListFilter struct {
	domain.ListFilter

	// ActiveOnly restricts the listing to active products
	ActiveOnly *bool

	// LowStockOnly returns only products at or below their reorder threshold
	LowStockOnly bool
}

// Repository defines persistence operations for products.
type Repository interface {
	// Create inserts a new product
	Create(ctx context.Context, p *Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// GetBySKU retrieves a product by its stock-keeping code
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// ExistsBySKU checks whether a product with the given SKU exists
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// Update modifies an existing product (with optimistic locking)
	Update(ctx context.Context, p *Product) error

	// List retrieves products with filtering and pagination
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)

	// ListActive returns all active products, ordered by SKU.
	// Used to snapshot the full catalog when an inventory check is
	// created without an explicit product set.
	ListActive(ctx context.Context) ([]*Product, error)
}
