package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
	"partstock/internal/domain"
	"partstock/internal/domain/catalogs/product"
	"partstock/internal/domain/ledger"
)

// Compile-time interface checks.
var (
	_ product.Repository = (*ProductRepo)(nil)
	_ ledger.Repository  = (*ProductRepo)(nil)
)

// ProductRepo is the PostgreSQL product repository. It also backs the
// stock ledger: product quantities live on the products table and the
// ledger reads and writes them through this repo.
type ProductRepo struct {
	repoBase[product.Product]
}

// NewProductRepo creates a product repository.
func NewProductRepo(txm *TxManager) *ProductRepo {
	r := &ProductRepo{
		repoBase: newRepoBase[product.Product](txm, "products"),
	}
	// Quantity is owned by the ledger (SetQuantity): a catalog update
	// must never write it back from a possibly stale read.
	r.markImmutable("quantity")
	return r
}

// Create inserts a new product. A SKU collision with a concurrent
// insert is reported as a duplicate rather than a bare driver error.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	if err := r.insert(ctx, p); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}
		return err
	}
	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.getByID(ctx, productID, false)
}

// GetBySKU retrieves a product by its stock-keeping code.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"sku": sku}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	p := new(product.Product)
	if err := pgxscan.Get(ctx, r.querier(ctx), p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, fmt.Errorf("get by sku: %w", err)
	}
	return p, nil
}

// ExistsBySKU checks whether a product with the given SKU exists.
func (r *ProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	sql, args, err := r.builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"sku": sku}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("exists by sku: %w", err)
	}
	return true, nil
}

// Update modifies an existing product with an optimistic locking check.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	return r.update(ctx, p)
}

// List retrieves products with filtering and pagination.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	if filter.ActiveOnly != nil {
		q = q.Where(squirrel.Eq{"is_active": *filter.ActiveOnly})
	}
	if filter.LowStockOnly {
		q = q.Where(squirrel.Expr("quantity <= min_quantity"))
	}

	total, err := r.count(ctx, q)
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	orderBy, err := r.parseOrderBy(filter.OrderBy, "sku ASC")
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

// ListActive returns all active products, ordered by SKU.
func (r *ProductRepo) ListActive(ctx context.Context) ([]*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("sku ASC")

	var items []*product.Product
	if err := r.selectMany(ctx, q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// --- ledger.Repository ---

// GetQuantityForUpdate reads the current quantity with a row lock.
// Must be called inside a transaction.
func (r *ProductRepo) GetQuantityForUpdate(ctx context.Context, productID id.ID) (int64, error) {
	sql, args, err := r.builder().
		Select("quantity").
		From(r.tableName).
		Where(squirrel.Eq{"id": productID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var quantity int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NewNotFound("product", productID.String())
		}
		return 0, fmt.Errorf("get quantity: %w", err)
	}
	return quantity, nil
}

// SetQuantity persists the new quantity for a product.
// Bypasses optimistic locking: callers hold the row lock taken by
// GetQuantityForUpdate.
func (r *ProductRepo) SetQuantity(ctx context.Context, productID id.ID, quantity int64) error {
	sql, args, err := r.builder().
		Update(r.tableName).
		Set("quantity", quantity).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}
