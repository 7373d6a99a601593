package services

import (
	"context"
	"database/sql"

	"github.com/Daysof1/proyecto/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductParams struct {
	Name          string
	Description   *string
	Price         decimal.Decimal
	Stock         int
	CategoryID    uuid.UUID
	SubcategoryID uuid.UUID
	ImageRef      *string
}

type UpdateProductParams struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	ImageRef      *string
}

type ProductFilter struct {
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	ActiveOnly    bool
}

// CreateProduct creates a product under an active category/subcategory pair.
// The subcategory must belong to the supplied category.
func (c *Catalog) CreateProduct(ctx context.Context, params CreateProductParams) (*models.Product, error) {
	if params.Price.IsNegative() {
		return nil, newError(KindInvalidPrice, "price cannot be negative")
	}
	if params.Stock < 0 {
		return nil, newError(KindInvalidStock, "stock cannot be negative")
	}

	product := &models.Product{
		ID:            uuid.New(),
		Name:          params.Name,
		Description:   params.Description,
		Price:         params.Price,
		Stock:         params.Stock,
		CategoryID:    params.CategoryID,
		SubcategoryID: params.SubcategoryID,
		ImageRef:      params.ImageRef,
		Active:        true,
	}

	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := checkHierarchy(tx, params.CategoryID, params.SubcategoryID); err != nil {
			return err
		}

		return tx.QueryRow(`INSERT INTO products (id, name, description, price, stock, category_id, subcategory_id, image_ref)
		                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		                    RETURNING created_at, updated_at`,
			product.ID, params.Name, params.Description, params.Price, params.Stock,
			params.CategoryID, params.SubcategoryID, params.ImageRef,
		).Scan(&product.CreatedAt, &product.UpdatedAt)
	})
	if err != nil {
		return nil, translateDB(err, "create product")
	}
	return product, nil
}

// checkHierarchy verifies the category exists and is active, the subcategory
// exists and is active, and the subcategory belongs to the category.
func checkHierarchy(tx *sql.Tx, categoryID, subcategoryID uuid.UUID) error {
	var categoryActive bool
	err := tx.QueryRow(`SELECT active FROM categories WHERE id = $1`, categoryID).Scan(&categoryActive)
	if err == sql.ErrNoRows {
		return newError(KindParentNotFound, "category %s does not exist", categoryID)
	}
	if err != nil {
		return err
	}
	if !categoryActive {
		return newError(KindParentInactive, "category %s is inactive", categoryID)
	}

	var subCategoryID uuid.UUID
	var subActive bool
	err = tx.QueryRow(`SELECT category_id, active FROM subcategories WHERE id = $1`, subcategoryID).Scan(&subCategoryID, &subActive)
	if err == sql.ErrNoRows {
		return newError(KindParentNotFound, "subcategory %s does not exist", subcategoryID)
	}
	if err != nil {
		return err
	}
	if subCategoryID != categoryID {
		return newError(KindHierarchyMismatch, "subcategory %s does not belong to category %s", subcategoryID, categoryID)
	}
	if !subActive {
		return newError(KindParentInactive, "subcategory %s is inactive", subcategoryID)
	}
	return nil
}

func (c *Catalog) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT id, name, description, price, stock, category_id, subcategory_id, image_ref, active, created_at, updated_at
	          FROM products WHERE id = $1`

	var p models.Product
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.CategoryID, &p.SubcategoryID, &p.ImageRef, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, newError(KindNotFound, "product %s not found", id)
	}
	if err != nil {
		return nil, translateDB(err, "get product")
	}
	return &p, nil
}

func (c *Catalog) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := `SELECT id, name, description, price, stock, category_id, subcategory_id, image_ref, active, created_at, updated_at
	          FROM products
	          WHERE ($1::uuid IS NULL OR category_id = $1)
	            AND ($2::uuid IS NULL OR subcategory_id = $2)
	            AND ($3 = false OR active = true)
	          ORDER BY name`

	rows, err := c.db.QueryContext(ctx, query, filter.CategoryID, filter.SubcategoryID, filter.ActiveOnly)
	if err != nil {
		return nil, translateDB(err, "list products")
	}
	defer rows.Close()

	products := make([]models.Product, 0, 32)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
			&p.CategoryID, &p.SubcategoryID, &p.ImageRef, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, translateDB(err, "list products")
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct updates descriptive fields, price, image and placement.
// Re-homing a product re-runs the hierarchy check against the final
// category/subcategory pair. Stock is not touched here; that is the stock
// ledger's job.
func (c *Catalog) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (*models.Product, error) {
	if params.Price != nil && params.Price.IsNegative() {
		return nil, newError(KindInvalidPrice, "price cannot be negative")
	}

	var p models.Product
	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`SELECT id, name, description, price, stock, category_id, subcategory_id, image_ref, active, created_at, updated_at
		                    FROM products WHERE id = $1 FOR UPDATE`, id).Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
			&p.CategoryID, &p.SubcategoryID, &p.ImageRef, &p.Active, &p.CreatedAt, &p.UpdatedAt,
		)
		if err == sql.ErrNoRows {
			return newError(KindNotFound, "product %s not found", id)
		}
		if err != nil {
			return err
		}

		if params.Name != nil {
			p.Name = *params.Name
		}
		if params.Description != nil {
			p.Description = params.Description
		}
		if params.Price != nil {
			p.Price = *params.Price
		}
		if params.ImageRef != nil {
			p.ImageRef = params.ImageRef
		}

		moved := false
		if params.CategoryID != nil && *params.CategoryID != p.CategoryID {
			p.CategoryID = *params.CategoryID
			moved = true
		}
		if params.SubcategoryID != nil && *params.SubcategoryID != p.SubcategoryID {
			p.SubcategoryID = *params.SubcategoryID
			moved = true
		}
		if moved {
			if err := checkHierarchy(tx, p.CategoryID, p.SubcategoryID); err != nil {
				return err
			}
		}

		return tx.QueryRow(`UPDATE products
		                    SET name = $2, description = $3, price = $4, category_id = $5,
		                        subcategory_id = $6, image_ref = $7, updated_at = now()
		                    WHERE id = $1
		                    RETURNING updated_at`,
			id, p.Name, p.Description, p.Price, p.CategoryID, p.SubcategoryID, p.ImageRef,
		).Scan(&p.UpdatedAt)
	})
	if err != nil {
		return nil, translateDB(err, "update product")
	}
	return &p, nil
}

// SetProductActive flips the product's flag. A product is a leaf, so
// deactivation has no cascade; activation requires its subcategory and
// category to be active.
func (c *Catalog) SetProductActive(ctx context.Context, id uuid.UUID, active bool) (int64, error) {
	var affected int64
	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		var categoryID, subcategoryID uuid.UUID
		err := tx.QueryRow(`SELECT category_id, subcategory_id FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&categoryID, &subcategoryID)
		if err == sql.ErrNoRows {
			return newError(KindNotFound, "product %s not found", id)
		}
		if err != nil {
			return err
		}

		if active {
			if err := checkHierarchy(tx, categoryID, subcategoryID); err != nil {
				return err
			}
		}

		res, err := tx.Exec(`UPDATE products SET active = $2, updated_at = now()
		                     WHERE id = $1 AND active = $3`, id, active, !active)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, translateDB(err, "set product active")
	}
	return affected, nil
}

// DeleteProduct removes a product that no order references. Cart lines are
// dropped with the product; order lines are history and block the delete.
func (c *Catalog) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		var dependents int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM order_lines WHERE product_id = $1`, id).Scan(&dependents); err != nil {
			return err
		}
		if dependents > 0 {
			return newError(KindHasDependents, "product %s appears in %d order lines, deactivate it instead", id, dependents)
		}

		res, err := tx.Exec(`DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return newError(KindNotFound, "product %s not found", id)
		}
		return nil
	})
	if err != nil {
		return translateDB(err, "delete product")
	}
	return nil
}
