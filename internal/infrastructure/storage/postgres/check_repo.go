package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
	"partstock/internal/domain"
	"partstock/internal/domain/check"
)

var _ check.Repository = (*CheckRepo)(nil)

const checkItemsTable = "inventory_check_items"

// CheckRepo is the PostgreSQL repository for inventory checks and their
// items. Items are owned rows: created with the check, loaded with it,
// removed by ON DELETE CASCADE.
type CheckRepo struct {
	repoBase[check.Check]
	itemCols []string
}

// NewCheckRepo creates a check repository.
func NewCheckRepo(txm *TxManager) *CheckRepo {
	return &CheckRepo{
		repoBase: newRepoBase[check.Check](txm, "inventory_checks"),
		itemCols: ExtractDBColumns[check.Item](),
	}
}

// Create persists a check header together with its items.
func (r *CheckRepo) Create(ctx context.Context, c *check.Check) error {
	if err := r.insert(ctx, c); err != nil {
		return err
	}

	ins := r.builder().
		Insert(checkItemsTable).
		Columns(r.itemCols...)
	for i := range c.Items {
		data := StructToMap(&c.Items[i])
		values := make([]any, len(r.itemCols))
		for j, col := range r.itemCols {
			values[j] = data[col]
		}
		ins = ins.Values(values...)
	}

	sql, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", checkItemsTable, err)
	}
	return nil
}

// GetByID loads a check with its items.
func (r *CheckRepo) GetByID(ctx context.Context, checkID id.ID) (*check.Check, error) {
	c, err := r.getByID(ctx, checkID, false)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetForUpdate loads a check with items, holding a row lock on the header.
func (r *CheckRepo) GetForUpdate(ctx context.Context, checkID id.ID) (*check.Check, error) {
	c, err := r.getByID(ctx, checkID, true)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CheckRepo) loadItems(ctx context.Context, c *check.Check) error {
	sql, args, err := r.builder().
		Select(r.itemCols...).
		From(checkItemsTable).
		Where(squirrel.Eq{"check_id": c.ID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build items query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.querier(ctx), &c.Items, sql, args...); err != nil {
		return fmt.Errorf("load %s: %w", checkItemsTable, err)
	}
	return nil
}

// Update persists header changes with an optimistic locking check.
func (r *CheckRepo) Update(ctx context.Context, c *check.Check) error {
	return r.update(ctx, c)
}

// GetItemForUpdate loads a single item with a row lock.
func (r *CheckRepo) GetItemForUpdate(ctx context.Context, itemID id.ID) (*check.Item, error) {
	sql, args, err := r.builder().
		Select(r.itemCols...).
		From(checkItemsTable).
		Where(squirrel.Eq{"id": itemID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	item := new(check.Item)
	if err := pgxscan.Get(ctx, r.querier(ctx), item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(checkItemsTable, itemID.String())
		}
		return nil, fmt.Errorf("get %s: %w", checkItemsTable, err)
	}
	return item, nil
}

// UpdateItem persists changes to a single item.
// Items carry no version column; concurrent writers are serialized by
// the parent check's row lock or the item's own FOR UPDATE.
func (r *CheckRepo) UpdateItem(ctx context.Context, item *check.Item) error {
	data := StructToMap(item)

	filtered := make(map[string]any, len(r.itemCols))
	for _, col := range r.itemCols {
		if col == "id" || col == "check_id" || col == "product_id" || col == "system_quantity" {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Update(checkItemsTable).
		SetMap(filtered).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build item update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", checkItemsTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(checkItemsTable, item.ID.String())
	}
	return nil
}

// List returns check headers (without items) matching the filter.
func (r *CheckRepo) List(ctx context.Context, filter check.ListFilter) (domain.ListResult[*check.Check], error) {
	result := domain.ListResult[*check.Check]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.DateTo})
	}

	total, err := r.count(ctx, q)
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	orderBy, err := r.parseOrderBy(filter.OrderBy, "created_at DESC")
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
