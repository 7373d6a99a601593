package services

import (
	"context"
	"database/sql"

	"github.com/Daysof1/proyecto/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UpdateSubcategoryParams struct {
	Name        *string
	Description *string
	CategoryID  *uuid.UUID
}

// SubcategoryStats summarizes a subcategory's products and inventory.
type SubcategoryStats struct {
	TotalProducts    int             `json:"total_products"`
	ActiveProducts   int             `json:"active_products"`
	InactiveProducts int             `json:"inactive_products"`
	StockTotal       int             `json:"stock_total"`
	InventoryValue   decimal.Decimal `json:"inventory_value"`
}

// CreateSubcategory creates a subcategory under an existing, active
// category. Names are unique per category.
func (c *Catalog) CreateSubcategory(ctx context.Context, categoryID uuid.UUID, name string, description *string) (*models.Subcategory, error) {
	sub := &models.Subcategory{ID: uuid.New(), Name: name, Description: description, CategoryID: categoryID, Active: true}

	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		var parentActive bool
		err := tx.QueryRow(`SELECT active FROM categories WHERE id = $1`, categoryID).Scan(&parentActive)
		if err == sql.ErrNoRows {
			return newError(KindParentNotFound, "category %s does not exist", categoryID)
		}
		if err != nil {
			return err
		}
		if !parentActive {
			return newError(KindParentInactive, "category %s is inactive, activate it first", categoryID)
		}

		return tx.QueryRow(`INSERT INTO subcategories (id, name, description, category_id)
		                    VALUES ($1, $2, $3, $4)
		                    RETURNING created_at, updated_at`,
			sub.ID, name, description, categoryID).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	})
	if err != nil {
		return nil, translateDB(err, "create subcategory")
	}

	c.invalidateTree(ctx)
	return sub, nil
}

func (c *Catalog) GetSubcategory(ctx context.Context, id uuid.UUID) (*models.Subcategory, error) {
	query := `SELECT id, name, description, category_id, active, created_at, updated_at
	          FROM subcategories WHERE id = $1`

	var sub models.Subcategory
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.Name, &sub.Description, &sub.CategoryID, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, newError(KindNotFound, "subcategory %s not found", id)
	}
	if err != nil {
		return nil, translateDB(err, "get subcategory")
	}
	return &sub, nil
}

// ListSubcategories returns subcategories, optionally restricted to one
// category and to active rows.
func (c *Catalog) ListSubcategories(ctx context.Context, categoryID *uuid.UUID, activeOnly bool) ([]models.Subcategory, error) {
	query := `SELECT id, name, description, category_id, active, created_at, updated_at
	          FROM subcategories
	          WHERE ($1::uuid IS NULL OR category_id = $1)
	            AND ($2 = false OR active = true)
	          ORDER BY name`

	rows, err := c.db.QueryContext(ctx, query, categoryID, activeOnly)
	if err != nil {
		return nil, translateDB(err, "list subcategories")
	}
	defer rows.Close()

	subs := make([]models.Subcategory, 0, 16)
	for rows.Next() {
		var sub models.Subcategory
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Description, &sub.CategoryID, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, translateDB(err, "list subcategories")
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// UpdateSubcategory updates name/description and optionally moves the
// subcategory to another active category. Moving re-homes the subcategory's
// products so product.category_id always matches the subcategory's parent.
func (c *Catalog) UpdateSubcategory(ctx context.Context, id uuid.UUID, params UpdateSubcategoryParams) (*models.Subcategory, error) {
	var sub models.Subcategory
	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`SELECT id, name, description, category_id, active, created_at, updated_at
		                    FROM subcategories WHERE id = $1 FOR UPDATE`, id).Scan(
			&sub.ID, &sub.Name, &sub.Description, &sub.CategoryID, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt,
		)
		if err == sql.ErrNoRows {
			return newError(KindNotFound, "subcategory %s not found", id)
		}
		if err != nil {
			return err
		}

		if params.CategoryID != nil && *params.CategoryID != sub.CategoryID {
			var parentActive bool
			err := tx.QueryRow(`SELECT active FROM categories WHERE id = $1`, *params.CategoryID).Scan(&parentActive)
			if err == sql.ErrNoRows {
				return newError(KindParentNotFound, "category %s does not exist", *params.CategoryID)
			}
			if err != nil {
				return err
			}
			if !parentActive {
				return newError(KindParentInactive, "category %s is inactive", *params.CategoryID)
			}
			sub.CategoryID = *params.CategoryID

			// Keep products on the same hierarchy path as their subcategory
			if _, err := tx.Exec(`UPDATE products SET category_id = $2, updated_at = now()
			                      WHERE subcategory_id = $1`, id, *params.CategoryID); err != nil {
				return err
			}
		}
		if params.Name != nil {
			sub.Name = *params.Name
		}
		if params.Description != nil {
			sub.Description = params.Description
		}

		return tx.QueryRow(`UPDATE subcategories
		                    SET name = $2, description = $3, category_id = $4, updated_at = now()
		                    WHERE id = $1
		                    RETURNING updated_at`,
			id, sub.Name, sub.Description, sub.CategoryID).Scan(&sub.UpdatedAt)
	})
	if err != nil {
		return nil, translateDB(err, "update subcategory")
	}

	c.invalidateTree(ctx)
	return &sub, nil
}

// SetSubcategoryActive flips the subcategory's flag. Deactivation cascades
// to the subcategory's products; activation requires the parent category to
// be active and never touches descendants.
func (c *Catalog) SetSubcategoryActive(ctx context.Context, id uuid.UUID, active bool) (int64, error) {
	var affected int64
	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		var categoryID uuid.UUID
		var current bool
		err := tx.QueryRow(`SELECT category_id, active FROM subcategories WHERE id = $1 FOR UPDATE`, id).Scan(&categoryID, &current)
		if err == sql.ErrNoRows {
			return newError(KindNotFound, "subcategory %s not found", id)
		}
		if err != nil {
			return err
		}

		if active {
			var parentActive bool
			if err := tx.QueryRow(`SELECT active FROM categories WHERE id = $1`, categoryID).Scan(&parentActive); err != nil {
				return err
			}
			if !parentActive {
				return newError(KindParentInactive, "category %s is inactive, activate it first", categoryID)
			}
		}

		res, err := tx.Exec(`UPDATE subcategories SET active = $2, updated_at = now()
		                     WHERE id = $1 AND active = $3`, id, active, !active)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		affected += n

		if active {
			return nil
		}

		res, err = tx.Exec(`UPDATE products SET active = false, updated_at = now()
		                    WHERE subcategory_id = $1 AND active = true`, id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		if err != nil {
			return err
		}
		affected += n
		return nil
	})
	if err != nil {
		return 0, translateDB(err, "set subcategory active")
	}

	c.invalidateTree(ctx)
	return affected, nil
}

// DeleteSubcategory removes a subcategory that has no products.
func (c *Catalog) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		var dependents int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM products WHERE subcategory_id = $1`, id).Scan(&dependents); err != nil {
			return err
		}
		if dependents > 0 {
			return newError(KindHasDependents, "subcategory %s has %d products, deactivate it instead", id, dependents)
		}

		res, err := tx.Exec(`DELETE FROM subcategories WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return newError(KindNotFound, "subcategory %s not found", id)
		}
		return nil
	})
	if err != nil {
		return translateDB(err, "delete subcategory")
	}

	c.invalidateTree(ctx)
	return nil
}

// SubcategoryStats reports product counts and inventory totals for a
// subcategory.
func (c *Catalog) SubcategoryStats(ctx context.Context, id uuid.UUID) (*SubcategoryStats, error) {
	if _, err := c.GetSubcategory(ctx, id); err != nil {
		return nil, err
	}

	query := `SELECT COUNT(*),
	                 COUNT(*) FILTER (WHERE active = true),
	                 COALESCE(SUM(stock), 0),
	                 COALESCE(SUM(price * stock), 0)
	          FROM products WHERE subcategory_id = $1`

	var stats SubcategoryStats
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&stats.TotalProducts, &stats.ActiveProducts, &stats.StockTotal, &stats.InventoryValue,
	)
	if err != nil {
		return nil, translateDB(err, "subcategory stats")
	}
	stats.InactiveProducts = stats.TotalProducts - stats.ActiveProducts
	return &stats, nil
}
