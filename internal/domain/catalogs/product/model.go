// Package product provides the product catalog (computer parts and accessories).
package product

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"partstock/internal/core/apperror"
	"partstock/internal/core/entity"
)

// Product represents a stocked item (SKU) in the parts catalog.
// Quantity is the authoritative on-hand count; it is mutated exclusively
// through the stock ledger, never written directly by other components.
type Product struct {
	entity.BaseEntity

	// SKU is the unique stock-keeping code
	SKU string `db:"sku" json:"sku"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Description is an optional detailed description
	Description string `db:"description" json:"description,omitempty"`

	// Price is the sale price
	Price decimal.Decimal `db:"price" json:"price"`

	// Quantity is the current on-hand stock in units (never negative)
	Quantity int64 `db:"quantity" json:"quantity"`

	// MinQuantity is the reorder threshold
	MinQuantity int64 `db:"min_quantity" json:"minQuantity"`

	// IsActive marks products that participate in sales and stock checks
	IsActive bool `db:"is_active" json:"isActive"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates a new active product with zero stock.
func NewProduct(sku, name string) *Product {
	now := time.Now().UTC()
	return &Product{
		BaseEntity: entity.NewBaseEntity(),
		SKU:        strings.TrimSpace(sku),
		Name:       strings.TrimSpace(name),
		Price:      decimal.Zero,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	if p.Quantity < 0 {
		return apperror.NewValidation("quantity must not be negative").
			WithDetail("field", "quantity")
	}

	if p.MinQuantity < 0 {
		return apperror.NewValidation("minQuantity must not be negative").
			WithDetail("field", "minQuantity")
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price")
	}

	return nil
}

// IsLowStock reports whether on-hand stock is at or below the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinQuantity
}

// Touch updates the UpdatedAt timestamp and increments version.
func (p *Product) Touch() {
	p.UpdatedAt = time.Now().UTC()
	p.BaseEntity.Touch()
}
