package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"partstock/internal/domain/catalogs/product"
)

// CreateProductRequest for registering new products.
type CreateProductRequest struct {
	SKU         string          `json:"sku" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity" binding:"min=0"`
	MinQuantity int64           `json:"minQuantity" binding:"min=0"`
}

// ToEntity builds a Product from the request.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.SKU, r.Name)
	p.Description = r.Description
	p.Price = r.Price
	p.Quantity = r.Quantity
	p.MinQuantity = r.MinQuantity
	return p
}

// UpdateProductRequest for modifying catalog fields. Quantity is absent
// on purpose: stock moves only through transactions.
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	MinQuantity *int64           `json:"minQuantity"`
	IsActive    *bool            `json:"isActive"`
	Version     int              `json:"version" binding:"required,min=1"`
}

// Apply copies the set fields onto the product.
func (r *UpdateProductRequest) Apply(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.MinQuantity != nil {
		p.MinQuantity = *r.MinQuantity
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	p.SetVersion(r.Version)
}

// ProductResponse contains product fields.
type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	MinQuantity int64           `json:"minQuantity"`
	IsActive    bool            `json:"isActive"`
	LowStock    bool            `json:"lowStock"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// FromProduct creates ProductResponse from a product.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		MinQuantity: p.MinQuantity,
		IsActive:    p.IsActive,
		LowStock:    p.IsLowStock(),
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// FromProducts maps a product slice to responses.
func FromProducts(items []*product.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for _, p := range items {
		out = append(out, FromProduct(p))
	}
	return out
}
