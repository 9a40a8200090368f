package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidate(t *testing.T) {
	ctx := context.Background()

	valid := NewProduct("CPU-0001", "Ryzen 7 9800X3D")
	valid.Price = decimal.RequireFromString("479.99")
	if err := valid.Validate(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Product)
	}{
		{"empty sku", func(p *Product) { p.SKU = "  " }},
		{"empty name", func(p *Product) { p.Name = "" }},
		{"negative quantity", func(p *Product) { p.Quantity = -1 }},
		{"negative min quantity", func(p *Product) { p.MinQuantity = -1 }},
		{"negative price", func(p *Product) { p.Price = decimal.NewFromInt(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProduct("CPU-0001", "Ryzen 7 9800X3D")
			tt.mutate(p)
			if err := p.Validate(ctx); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestIsLowStock(t *testing.T) {
	p := NewProduct("SSD-0001", "Samsung 990 Pro 2TB")
	p.MinQuantity = 5

	p.Quantity = 10
	if p.IsLowStock() {
		t.Error("above threshold must not be low stock")
	}

	p.Quantity = 5
	if !p.IsLowStock() {
		t.Error("at threshold must be low stock")
	}

	p.Quantity = 0
	if !p.IsLowStock() {
		t.Error("empty stock must be low stock")
	}
}

func TestTouch(t *testing.T) {
	p := NewProduct("GPU-0001", "RTX 5080")
	before := p.Version
	p.Touch()
	if p.Version != before+1 {
		t.Errorf("expected version bump to %d, got %d", before+1, p.Version)
	}
}
