package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"partstock/internal/domain/catalogs/product"
)

// A catalog update must never write quantity: it is owned by the ledger
// write path, and writing it back from a stale read would silently
// revert stock movements committed in between.
func TestProductUpdate_QuantityNotWritten(t *testing.T) {
	repo := NewProductRepo(nil)

	p := product.NewProduct("CPU-0001", "Ryzen 7 5800X")
	p.Quantity = 42
	data := StructToMap(p)

	cols := repo.updatableColumns(data)

	if _, ok := cols["quantity"]; ok {
		t.Errorf("update column set includes quantity: %v", cols)
	}
	for _, immutable := range []string{"id", "version", "created_at", "created_by"} {
		if _, ok := cols[immutable]; ok {
			t.Errorf("update column set includes %s", immutable)
		}
	}
	for _, mutable := range []string{"sku", "name", "price", "min_quantity", "is_active"} {
		if _, ok := cols[mutable]; !ok {
			t.Errorf("update column set is missing %s", mutable)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert products: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "products_sku_key",
	})
	if !isUniqueViolation(dup) {
		t.Error("wrapped 23505 not recognized as unique violation")
	}

	fk := fmt.Errorf("insert products: %w", &pgconn.PgError{Code: "23503"})
	if isUniqueViolation(fk) {
		t.Error("foreign key violation misreported as unique violation")
	}

	if isUniqueViolation(errors.New("connection refused")) {
		t.Error("plain error misreported as unique violation")
	}
}
