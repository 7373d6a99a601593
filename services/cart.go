package services

import (
	"context"
	"database/sql"

	"github.com/Daysof1/proyecto/database"
	"github.com/Daysof1/proyecto/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart manages per-user cart lines. The unit price of a line is snapshotted
// when the line is first created; repeat adds only bump the quantity, so the
// price a customer committed to stays until the line is removed.
type Cart struct {
	db *database.DB
}

func NewCart(db *database.DB) *Cart {
	return &Cart{db: db}
}

// CartView is a cart read with its computed summary. The summary is derived
// on every read and never stored.
type CartView struct {
	Lines   []models.CartLine `json:"lines"`
	Summary CartSummary       `json:"summary"`
}

type CartSummary struct {
	LineCount     int             `json:"line_count"`
	TotalQuantity int             `json:"total_quantity"`
	Total         decimal.Decimal `json:"total"`
}

// Add puts qty units of a product into the user's cart. A new line snapshots
// the product's current price; an existing line increments its quantity and
// keeps the original snapshot.
func (c *Cart) Add(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartLine, error) {
	if qty < 1 {
		return nil, newError(KindInvalidStock, "quantity must be at least 1")
	}

	line := &models.CartLine{UserID: userID, ProductID: productID}
	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		var price decimal.Decimal
		var active bool
		err := tx.QueryRow(`SELECT price, active FROM products WHERE id = $1`, productID).Scan(&price, &active)
		if err == sql.ErrNoRows {
			return newError(KindNotFound, "product %s not found", productID)
		}
		if err != nil {
			return err
		}
		if !active {
			return &Error{
				Kind:      KindProductInactive,
				Message:   "product " + productID.String() + " is not available",
				ProductID: productID,
			}
		}

		// First add wins the snapshot: the conflict branch leaves unit_price
		// untouched.
		return tx.QueryRow(`INSERT INTO cart_lines (id, user_id, product_id, quantity, unit_price)
		                    VALUES ($1, $2, $3, $4, $5)
		                    ON CONFLICT (user_id, product_id)
		                    DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = now()
		                    RETURNING id, quantity, unit_price, added_at, updated_at`,
			uuid.New(), userID, productID, qty, price,
		).Scan(&line.ID, &line.Quantity, &line.UnitPrice, &line.AddedAt, &line.UpdatedAt)
	})
	if err != nil {
		return nil, translateDB(err, "add to cart")
	}
	return line, nil
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (c *Cart) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if qty < 0 {
		return newError(KindInvalidStock, "quantity cannot be negative")
	}
	if qty == 0 {
		return c.Remove(ctx, userID, productID)
	}

	res, err := c.db.ExecContext(ctx, `UPDATE cart_lines SET quantity = $3, updated_at = now()
	                                   WHERE user_id = $1 AND product_id = $2`, userID, productID, qty)
	if err != nil {
		return translateDB(err, "set cart quantity")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translateDB(err, "set cart quantity")
	}
	if n == 0 {
		return newError(KindNotFound, "product %s is not in the cart", productID)
	}
	return nil
}

// Remove deletes the user's line for the product.
func (c *Cart) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return translateDB(err, "remove from cart")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translateDB(err, "remove from cart")
	}
	if n == 0 {
		return newError(KindNotFound, "product %s is not in the cart", productID)
	}
	return nil
}

// Get returns the user's cart lines and their computed summary.
func (c *Cart) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	query := `SELECT id, user_id, product_id, quantity, unit_price, added_at, updated_at
	          FROM cart_lines WHERE user_id = $1 ORDER BY added_at DESC`

	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, translateDB(err, "get cart")
	}
	defer rows.Close()

	view := &CartView{Lines: []models.CartLine{}, Summary: CartSummary{Total: decimal.Zero}}
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.AddedAt, &line.UpdatedAt); err != nil {
			return nil, translateDB(err, "get cart")
		}
		view.Lines = append(view.Lines, line)
		view.Summary.LineCount++
		view.Summary.TotalQuantity += line.Quantity
		view.Summary.Total = view.Summary.Total.Add(line.Subtotal())
	}
	if err := rows.Err(); err != nil {
		return nil, translateDB(err, "get cart")
	}
	return view, nil
}
