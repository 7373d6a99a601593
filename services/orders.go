package services

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/Daysof1/proyecto/database"
	"github.com/Daysof1/proyecto/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Orders converts carts into immutable orders. A conversion is one
// transaction: the user's cart lines are locked, each product is checked and
// its stock decremented through the ledger, order lines freeze the cart's
// snapshot prices, and the cart is drained. Any failure rolls the whole
// conversion back and leaves the cart untouched.
type Orders struct {
	db    *database.DB
	stock *Stock
}

func NewOrders(db *database.DB, stock *Stock) *Orders {
	return &Orders{db: db, stock: stock}
}

// Place converts the user's cart into an order.
func (o *Orders) Place(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	order := &models.Order{ID: uuid.New(), UserID: userID}

	err := o.db.WithTx(ctx, func(tx *sql.Tx) error {
		// Lock the cart so a concurrent add/remove cannot race the drain.
		// product_id order keeps the later product locking deterministic.
		rows, err := tx.Query(`SELECT product_id, quantity, unit_price
		                       FROM cart_lines WHERE user_id = $1
		                       ORDER BY product_id FOR UPDATE`, userID)
		if err != nil {
			return err
		}

		type pending struct {
			productID uuid.UUID
			quantity  int
			unitPrice decimal.Decimal
		}
		var cart []pending
		for rows.Next() {
			var p pending
			if err := rows.Scan(&p.productID, &p.quantity, &p.unitPrice); err != nil {
				rows.Close()
				return err
			}
			cart = append(cart, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(cart) == 0 {
			return newError(KindEmptyCart, "cart is empty")
		}

		total := decimal.Zero
		lines := make([]models.OrderLine, 0, len(cart))
		for _, item := range cart {
			var active bool
			err := tx.QueryRow(`SELECT active FROM products WHERE id = $1 FOR UPDATE`, item.productID).Scan(&active)
			if err == sql.ErrNoRows {
				return productUnavailable(item.productID, "product no longer exists")
			}
			if err != nil {
				return err
			}
			if !active {
				return productUnavailable(item.productID, "product is no longer active")
			}

			if _, _, err := o.stock.decreaseTx(tx, item.productID, item.quantity); err != nil {
				if e, ok := err.(*Error); ok && e.Kind == KindInsufficientStock {
					unavailable := productUnavailable(item.productID, e.Message)
					unavailable.Available = e.Available
					return unavailable
				}
				return err
			}

			subtotal := item.unitPrice.Mul(decimal.NewFromInt(int64(item.quantity)))
			total = total.Add(subtotal)
			lines = append(lines, models.OrderLine{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: item.productID,
				Quantity:  item.quantity,
				UnitPrice: item.unitPrice,
				Subtotal:  subtotal,
			})
		}

		order.OrderNumber = generateOrderNumber()
		order.Total = total
		if err := tx.QueryRow(`INSERT INTO orders (id, user_id, order_number, total)
		                       VALUES ($1, $2, $3, $4)
		                       RETURNING created_at`,
			order.ID, userID, order.OrderNumber, total).Scan(&order.CreatedAt); err != nil {
			return err
		}

		for _, line := range lines {
			if _, err := tx.Exec(`INSERT INTO order_lines (id, order_id, product_id, quantity, unit_price, subtotal)
			                      VALUES ($1, $2, $3, $4, $5, $6)`,
				line.ID, line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal); err != nil {
				return err
			}
		}
		order.Lines = lines

		_, err = tx.Exec(`DELETE FROM cart_lines WHERE user_id = $1`, userID)
		return err
	})
	if err != nil {
		return nil, translateDB(err, "place order")
	}
	return order, nil
}

// Get returns one of the user's orders with its lines.
func (o *Orders) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := o.db.QueryRowContext(ctx, `SELECT id, user_id, order_number, total, created_at
	                                  FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID).Scan(
		&order.ID, &order.UserID, &order.OrderNumber, &order.Total, &order.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, newError(KindNotFound, "order %s not found", orderID)
	}
	if err != nil {
		return nil, translateDB(err, "get order")
	}

	rows, err := o.db.QueryContext(ctx, `SELECT ol.id, ol.order_id, ol.product_id, ol.quantity, ol.unit_price, ol.subtotal, p.name
	                                     FROM order_lines ol
	                                     JOIN products p ON ol.product_id = p.id
	                                     WHERE ol.order_id = $1
	                                     ORDER BY p.name`, orderID)
	if err != nil {
		return nil, translateDB(err, "get order")
	}
	defer rows.Close()

	for rows.Next() {
		var line models.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.Subtotal, &line.ProductName); err != nil {
			return nil, translateDB(err, "get order")
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, translateDB(err, "get order")
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first, without lines.
func (o *Orders) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := o.db.QueryContext(ctx, `SELECT id, user_id, order_number, total, created_at
	                                     FROM orders WHERE user_id = $1
	                                     ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, translateDB(err, "list orders")
	}
	defer rows.Close()

	orders := make([]models.Order, 0, 8)
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.OrderNumber, &order.Total, &order.CreatedAt); err != nil {
			return nil, translateDB(err, "list orders")
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func productUnavailable(productID uuid.UUID, reason string) *Error {
	return &Error{
		Kind:      KindProductUnavailable,
		Message:   fmt.Sprintf("product %s: %s", productID, reason),
		ProductID: productID,
	}
}

// generateOrderNumber builds a human-readable order number. Uniqueness is
// ultimately guaranteed by the orders.order_number constraint.
func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%04d", time.Now().Format("20060102-150405"), rand.Intn(10000))
}
