package services

import (
	"context"
	"database/sql"
	"log"

	"github.com/Daysof1/proyecto/database"
	"github.com/Daysof1/proyecto/models"

	"github.com/google/uuid"
)

// Catalog owns the category → subcategory → product hierarchy. Deactivating
// a node deactivates every descendant inside the same transaction;
// reactivation never cascades and only flips the single node, which must sit
// under an active parent chain. That asymmetry is intended: bringing a
// branch back is a manual, per-node decision.
type Catalog struct {
	db    *database.DB
	cache *Cache
}

func NewCatalog(db *database.DB, cache *Cache) *Catalog {
	return &Catalog{db: db, cache: cache}
}

const catalogTreeCacheKey = "catalog:tree"

// CategoryNode is a category with its subcategories, used by the public
// catalog tree.
type CategoryNode struct {
	models.Category
	Subcategories []models.Subcategory `json:"subcategories"`
}

type UpdateCategoryParams struct {
	Name        *string
	Description *string
}

func (c *Catalog) CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error) {
	id := uuid.New()
	query := `INSERT INTO categories (id, name, description)
	          VALUES ($1, $2, $3)
	          RETURNING created_at, updated_at`

	cat := &models.Category{ID: id, Name: name, Description: description, Active: true}
	err := c.db.QueryRowContext(ctx, query, id, name, description).Scan(&cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		return nil, translateDB(err, "create category")
	}

	c.invalidateTree(ctx)
	return cat, nil
}

func (c *Catalog) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	query := `SELECT id, name, description, active, created_at, updated_at
	          FROM categories WHERE id = $1`

	var cat models.Category
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&cat.ID, &cat.Name, &cat.Description, &cat.Active, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, newError(KindNotFound, "category %s not found", id)
	}
	if err != nil {
		return nil, translateDB(err, "get category")
	}
	return &cat, nil
}

func (c *Catalog) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := `SELECT id, name, description, active, created_at, updated_at
	          FROM categories ORDER BY name`
	if activeOnly {
		query = `SELECT id, name, description, active, created_at, updated_at
		         FROM categories WHERE active = true ORDER BY name`
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translateDB(err, "list categories")
	}
	defer rows.Close()

	categories := make([]models.Category, 0, 16)
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description, &cat.Active, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, translateDB(err, "list categories")
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// Tree returns the active catalog as categories with nested subcategories.
// Served from the cache when available; mutations invalidate it.
func (c *Catalog) Tree(ctx context.Context) ([]CategoryNode, error) {
	var cached []CategoryNode
	if hit, err := c.cache.Get(ctx, catalogTreeCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	categories, err := c.ListCategories(ctx, true)
	if err != nil {
		return nil, err
	}

	subsQuery := `SELECT id, name, description, category_id, active, created_at, updated_at
	              FROM subcategories WHERE active = true ORDER BY name`
	rows, err := c.db.QueryContext(ctx, subsQuery)
	if err != nil {
		return nil, translateDB(err, "list subcategories")
	}
	defer rows.Close()

	byCategory := make(map[uuid.UUID][]models.Subcategory)
	for rows.Next() {
		var sub models.Subcategory
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Description, &sub.CategoryID, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, translateDB(err, "list subcategories")
		}
		byCategory[sub.CategoryID] = append(byCategory[sub.CategoryID], sub)
	}
	if err := rows.Err(); err != nil {
		return nil, translateDB(err, "list subcategories")
	}

	tree := make([]CategoryNode, 0, len(categories))
	for _, cat := range categories {
		subs := byCategory[cat.ID]
		if subs == nil {
			subs = []models.Subcategory{}
		}
		tree = append(tree, CategoryNode{Category: cat, Subcategories: subs})
	}

	if err := c.cache.Set(ctx, catalogTreeCacheKey, tree); err != nil {
		log.Printf("catalog tree cache set failed: %v", err)
	}
	return tree, nil
}

func (c *Catalog) UpdateCategory(ctx context.Context, id uuid.UUID, params UpdateCategoryParams) (*models.Category, error) {
	query := `UPDATE categories
	          SET name = COALESCE($2, name),
	              description = COALESCE($3, description),
	              updated_at = now()
	          WHERE id = $1
	          RETURNING id, name, description, active, created_at, updated_at`

	var cat models.Category
	err := c.db.QueryRowContext(ctx, query, id, params.Name, params.Description).Scan(
		&cat.ID, &cat.Name, &cat.Description, &cat.Active, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, newError(KindNotFound, "category %s not found", id)
	}
	if err != nil {
		return nil, translateDB(err, "update category")
	}

	c.invalidateTree(ctx)
	return &cat, nil
}

// SetCategoryActive flips the category's flag. Deactivation cascades to all
// subcategories and products of the category in the same transaction; the
// returned count covers only rows whose state actually changed, so a second
// deactivation succeeds with 0. Activation touches the category alone.
func (c *Catalog) SetCategoryActive(ctx context.Context, id uuid.UUID, active bool) (int64, error) {
	var affected int64
	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		var current bool
		err := tx.QueryRow(`SELECT active FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err == sql.ErrNoRows {
			return newError(KindNotFound, "category %s not found", id)
		}
		if err != nil {
			return err
		}

		res, err := tx.Exec(`UPDATE categories SET active = $2, updated_at = now()
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

		// Cascade: guard on active = true so already-inactive descendants
		// neither change nor count.
		res, err = tx.Exec(`UPDATE subcategories SET active = false, updated_at = now()
		                    WHERE category_id = $1 AND active = true`, id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		if err != nil {
			return err
		}
		affected += n

		res, err = tx.Exec(`UPDATE products SET active = false, updated_at = now()
		                    WHERE category_id = $1 AND active = true`, id)
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
		return 0, translateDB(err, "set category active")
	}

	c.invalidateTree(ctx)
	return affected, nil
}

// DeleteCategory removes a category that has no subcategories. Deactivation
// is the supported removal path for anything with descendants.
func (c *Catalog) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		var dependents int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM subcategories WHERE category_id = $1`, id).Scan(&dependents); err != nil {
			return err
		}
		if dependents > 0 {
			return newError(KindHasDependents, "category %s has %d subcategories, deactivate it instead", id, dependents)
		}

		res, err := tx.Exec(`DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return newError(KindNotFound, "category %s not found", id)
		}
		return nil
	})
	if err != nil {
		return translateDB(err, "delete category")
	}

	c.invalidateTree(ctx)
	return nil
}

func (c *Catalog) invalidateTree(ctx context.Context) {
	if err := c.cache.Delete(ctx, catalogTreeCacheKey); err != nil {
		log.Printf("catalog tree cache invalidation failed: %v", err)
	}
}
