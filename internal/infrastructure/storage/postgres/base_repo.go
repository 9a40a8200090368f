package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"partstock/internal/core/apperror"
	"partstock/internal/core/id"
)

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// repoBase provides common CRUD plumbing for entity repositories:
// squirrel query building, db-tag mapping and optimistic locking.
type repoBase[T any] struct {
	txm        *TxManager
	tableName  string
	selectCols []string
	immutable  map[string]struct{}
}

func newRepoBase[T any](txm *TxManager, tableName string) repoBase[T] {
	return repoBase[T]{
		txm:        txm,
		tableName:  tableName,
		selectCols: ExtractDBColumns[T](),
		immutable: map[string]struct{}{
			"id":         {},
			"created_at": {},
			"created_by": {},
			"version":    {},
		},
	}
}

// markImmutable excludes additional columns from update writes.
// Used for columns owned by another write path, like product quantity,
// which only the stock ledger mutates.
func (r *repoBase[T]) markImmutable(cols ...string) {
	for _, col := range cols {
		r.immutable[col] = struct{}{}
	}
}

// updatableColumns filters an entity map down to the columns update is
// allowed to write.
func (r *repoBase[T]) updatableColumns(data map[string]any) map[string]any {
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if _, skip := r.immutable[col]; skip {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return filtered
}

// builder returns a new squirrel builder with Postgres placeholders.
func (r *repoBase[T]) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *repoBase[T]) querier(ctx context.Context) Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *repoBase[T]) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// insert persists a new row from the entity's db-tagged fields.
func (r *repoBase[T]) insert(ctx context.Context, entity any) error {
	data := StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Insert(r.tableName).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}

	return nil
}

// update persists changes with an optimistic locking check on version.
// The caller must have bumped the in-memory version (Touch); the row is
// matched against the previous one.
func (r *repoBase[T]) update(ctx context.Context, entity any) error {
	data := StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field")
	}

	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	filtered := r.updatableColumns(data)

	sql, args, err := r.builder().
		Update(r.tableName).
		SetMap(filtered).
		Set("version", version).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version - 1}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, entityID)
	}

	return nil
}

// getByID retrieves a row by primary key, optionally with a row lock.
func (r *repoBase[T]) getByID(ctx context.Context, entityID id.ID, forUpdate bool) (*T, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": entityID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entity := new(T)
	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.tableName, entityID.String())
		}
		return nil, fmt.Errorf("get %s: %w", r.tableName, err)
	}

	return entity, nil
}

// count runs a COUNT(*) over the given select.
func (r *repoBase[T]) count(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	countSQL, countArgs, err := r.builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var total int64
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.tableName, err)
	}
	return total, nil
}

// selectMany scans the query result into dest (a *[]*T).
func (r *repoBase[T]) selectMany(ctx context.Context, q squirrel.SelectBuilder, dest any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.querier(ctx), dest, sql, args...); err != nil {
		return fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return nil
}

// parseOrderBy validates a "field" / "-field" order expression against
// the entity's columns. Rejecting unknown fields keeps user input out of
// the SQL text.
func (r *repoBase[T]) parseOrderBy(orderBy, fallback string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return fallback, nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	allowed := false
	for _, col := range r.selectCols {
		if col == field {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", apperror.NewValidation("invalid orderBy").
			WithDetail("orderBy", orderBy).
			WithDetail("field", field)
	}

	return field + " " + direction, nil
}
