package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/menu"
)

const (
	menuItemColumns = `id, name, category_id, price, is_available, description`

	listMenuItemsSQL = `SELECT ` + menuItemColumns + ` FROM menu_items
		WHERE ($1::bigint IS NULL OR category_id = $1)
		  AND ($2::text = '' OR name ILIKE $2)
		ORDER BY name, id`

	getMenuItemSQL = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

	createMenuItemSQL = `INSERT INTO menu_items (name, category_id, price, is_available, description)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	updateMenuItemSQL = `UPDATE menu_items
		SET name = $2, category_id = $3, price = $4, is_available = $5, description = $6
		WHERE id = $1`

	deleteMenuItemSQL = `DELETE FROM menu_items WHERE id = $1`

	listCategoriesSQL = `SELECT id, name FROM categories ORDER BY name, id`
	createCategorySQL = `INSERT INTO categories (name) VALUES ($1) RETURNING id`
	updateCategorySQL = `UPDATE categories SET name = $2 WHERE id = $1`
	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`
	detachCategorySQL = `UPDATE menu_items SET category_id = NULL WHERE category_id = $1`
	listTablesSQL     = `SELECT id, label, seats FROM dining_tables ORDER BY id`
	getTableSQL       = `SELECT id, label, seats FROM dining_tables WHERE id = $1`
	createTableSQL    = `INSERT INTO dining_tables (label, seats) VALUES ($1, $2) RETURNING id`
	deleteTableSQL    = `DELETE FROM dining_tables WHERE id = $1`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

func (r *MenuRepository) ListItems(ctx context.Context, f menu.ItemFilter) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuItemsSQL, f.CategoryID, likePattern(f.Search))
	if err != nil {
		return nil, apperr.Storage("list menu items", err)
	}
	items, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, apperr.Storage("list menu items", err)
	}
	return items, nil
}

func (r *MenuRepository) GetItem(ctx context.Context, id int64) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemSQL, id)
	if err != nil {
		return nil, apperr.Storage("get menu item", err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		return nil, notFound("get menu item", err)
	}
	return &it, nil
}

func (r *MenuRepository) CreateItem(ctx context.Context, it *menu.Item) error {
	err := r.pool.QueryRow(ctx, createMenuItemSQL,
		it.Name, it.CategoryID, it.Price, it.Available, it.Description,
	).Scan(&it.ID)
	if err != nil {
		return menuWriteError("create menu item", err)
	}
	return nil
}

func (r *MenuRepository) UpdateItem(ctx context.Context, it *menu.Item) error {
	tag, err := r.pool.Exec(ctx, updateMenuItemSQL,
		it.ID, it.Name, it.CategoryID, it.Price, it.Available, it.Description,
	)
	if err != nil {
		return menuWriteError("update menu item", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *MenuRepository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteMenuItemSQL, id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return menu.ErrItemInUse
		}
		return apperr.Storage("delete menu item", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *MenuRepository) ListCategories(ctx context.Context) ([]menu.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, apperr.Storage("list categories", err)
	}
	cs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (menu.Category, error) {
		var c menu.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, apperr.Storage("list categories", err)
	}
	return cs, nil
}

func (r *MenuRepository) CreateCategory(ctx context.Context, c *menu.Category) error {
	if err := r.pool.QueryRow(ctx, createCategorySQL, c.Name).Scan(&c.ID); err != nil {
		return menuWriteError("create category", err)
	}
	return nil
}

func (r *MenuRepository) UpdateCategory(ctx context.Context, c *menu.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name)
	if err != nil {
		return menuWriteError("update category", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteCategory nulls the category of its items and removes it in one
// transaction.
func (r *MenuRepository) DeleteCategory(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, detachCategorySQL, id); err != nil {
			return apperr.Storage("detach category items", err)
		}
		tag, err := tx.Exec(ctx, deleteCategorySQL, id)
		if err != nil {
			return apperr.Storage("delete category", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}

func (r *MenuRepository) ListTables(ctx context.Context) ([]menu.Table, error) {
	rows, err := r.pool.Query(ctx, listTablesSQL)
	if err != nil {
		return nil, apperr.Storage("list tables", err)
	}
	ts, err := pgx.CollectRows(rows, scanTable)
	if err != nil {
		return nil, apperr.Storage("list tables", err)
	}
	return ts, nil
}

func (r *MenuRepository) GetTable(ctx context.Context, id int64) (*menu.Table, error) {
	rows, err := r.pool.Query(ctx, getTableSQL, id)
	if err != nil {
		return nil, apperr.Storage("get table", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTable)
	if err != nil {
		return nil, notFound("get table", err)
	}
	return &t, nil
}

func (r *MenuRepository) CreateTable(ctx context.Context, t *menu.Table) error {
	if err := r.pool.QueryRow(ctx, createTableSQL, t.Label, t.Seats).Scan(&t.ID); err != nil {
		return menuWriteError("create table", err)
	}
	return nil
}

// DeleteTable removes a table; its orders keep existing with a NULL table.
func (r *MenuRepository) DeleteTable(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteTableSQL, id)
	if err != nil {
		return apperr.Storage("delete table", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func menuWriteError(op string, err error) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return menu.ErrDuplicateName
	case codeForeignKeyViolation:
		return apperr.Validation("category_id", "unknown category")
	}
	return apperr.Storage(op, err)
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var it menu.Item
	err := row.Scan(&it.ID, &it.Name, &it.CategoryID, &it.Price, &it.Available, &it.Description)
	return it, err
}

func scanTable(row pgx.CollectableRow) (menu.Table, error) {
	var t menu.Table
	err := row.Scan(&t.ID, &t.Label, &t.Seats)
	return t, err
}
