package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is an immutable record of a converted cart. Total is computed once
// at conversion time from the line subtotals and never recalculated.
type Order struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	OrderNumber string          `json:"order_number" db:"order_number"`
	Total       decimal.Decimal `json:"total" db:"total"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	Lines       []OrderLine     `json:"lines,omitempty"`
}

// OrderLine freezes a cart line at conversion time. UnitPrice is copied from
// the cart snapshot, not from the live product, and Subtotal is stored.
type OrderLine struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
	// Display fields filled by joins on the read side
	ProductName string `json:"product_name,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

func (OrderLine) TableName() string {
	return "order_lines"
}

func (Order) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id),
		order_number VARCHAR(50) NOT NULL UNIQUE,
		total NUMERIC(12,2) NOT NULL CHECK (total >= 0),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);`
}

func (OrderLine) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS order_lines (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		unit_price NUMERIC(10,2) NOT NULL CHECK (unit_price >= 0),
		subtotal NUMERIC(12,2) NOT NULL CHECK (subtotal >= 0)
	);
	CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines(order_id);
	CREATE INDEX IF NOT EXISTS idx_order_lines_product ON order_lines(product_id);`
}
