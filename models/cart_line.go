package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one product in a user's cart. UnitPrice is captured when the
// line is first created and is not refreshed by later price changes or
// repeat adds; removing and re-adding the product starts a new snapshot.
type CartLine struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    uuid.UUID       `json:"user_id" db:"user_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	AddedAt   time.Time       `json:"added_at" db:"added_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Subtotal is the line value at the snapshot price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (CartLine) TableName() string {
	return "cart_lines"
}

func (CartLine) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS cart_lines (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
		unit_price NUMERIC(10,2) NOT NULL CHECK (unit_price >= 0),
		added_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		UNIQUE (user_id, product_id)
	);
	CREATE INDEX IF NOT EXISTS idx_cart_lines_user ON cart_lines(user_id);`
}
