package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   *string         `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Stock         int             `json:"stock" db:"stock"`
	CategoryID    uuid.UUID       `json:"category_id" db:"category_id"`
	SubcategoryID uuid.UUID       `json:"subcategory_id" db:"subcategory_id"`
	// ImageRef is the opaque handle returned by the upload service.
	ImageRef  *string   `json:"image_ref" db:"image_ref"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (Product) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(100) NOT NULL,
		description TEXT,
		price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		category_id UUID NOT NULL REFERENCES categories(id),
		subcategory_id UUID NOT NULL REFERENCES subcategories(id),
		image_ref TEXT,
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
	CREATE INDEX IF NOT EXISTS idx_products_subcategory ON products(subcategory_id);`
}
