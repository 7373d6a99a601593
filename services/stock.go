package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Daysof1/proyecto/database"

	"github.com/google/uuid"
)

// Stock is the ledger for product stock. Every adjustment is an atomic
// read-modify-write under a row lock, so concurrent adjustments to the same
// product serialize and stock can never go below zero.
type Stock struct {
	db *database.DB
}

func NewStock(db *database.DB) *Stock {
	return &Stock{db: db}
}

// Adjustment reports a committed stock change.
type Adjustment struct {
	ProductID uuid.UUID `json:"product_id"`
	Previous  int       `json:"previous"`
	Current   int       `json:"current"`
}

// Increase adds qty units to the product's stock.
func (s *Stock) Increase(ctx context.Context, productID uuid.UUID, qty int) (*Adjustment, error) {
	if qty < 0 {
		return nil, newError(KindInvalidStock, "quantity cannot be negative")
	}
	return s.adjust(ctx, productID, func(current int) (int, error) {
		return current + qty, nil
	})
}

// Decrease removes qty units from the product's stock. Fails with
// InsufficientStock, reporting the current value, when qty exceeds it.
func (s *Stock) Decrease(ctx context.Context, productID uuid.UUID, qty int) (*Adjustment, error) {
	if qty < 0 {
		return nil, newError(KindInvalidStock, "quantity cannot be negative")
	}
	return s.adjust(ctx, productID, func(current int) (int, error) {
		if qty > current {
			return 0, insufficientStock(productID, qty, current)
		}
		return current - qty, nil
	})
}

// Set replaces the product's stock with qty.
func (s *Stock) Set(ctx context.Context, productID uuid.UUID, qty int) (*Adjustment, error) {
	if qty < 0 {
		return nil, newError(KindInvalidStock, "stock cannot be negative")
	}
	return s.adjust(ctx, productID, func(int) (int, error) {
		return qty, nil
	})
}

func (s *Stock) adjust(ctx context.Context, productID uuid.UUID, next func(current int) (int, error)) (*Adjustment, error) {
	adj := &Adjustment{ProductID: productID}
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		prev, err := lockStock(tx, productID)
		if err != nil {
			return err
		}
		target, err := next(prev)
		if err != nil {
			return err
		}
		if err := writeStock(tx, productID, target); err != nil {
			return err
		}
		adj.Previous, adj.Current = prev, target
		return nil
	})
	if err != nil {
		return nil, translateDB(err, "adjust stock")
	}
	return adj, nil
}

// lockStock takes the product's row lock and returns its current stock.
func lockStock(tx *sql.Tx, productID uuid.UUID) (int, error) {
	var current int
	err := tx.QueryRow(`SELECT stock FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&current)
	if err == sql.ErrNoRows {
		return 0, newError(KindNotFound, "product %s not found", productID)
	}
	if err != nil {
		return 0, err
	}
	return current, nil
}

func writeStock(tx *sql.Tx, productID uuid.UUID, stock int) error {
	_, err := tx.Exec(`UPDATE products SET stock = $2, updated_at = now() WHERE id = $1`, productID, stock)
	return err
}

// decreaseTx is the tx-scoped decrement used by order conversion; the caller
// owns the transaction and the product row lock is taken here.
func (s *Stock) decreaseTx(tx *sql.Tx, productID uuid.UUID, qty int) (prev, current int, err error) {
	prev, err = lockStock(tx, productID)
	if err != nil {
		return 0, 0, err
	}
	if qty > prev {
		return 0, 0, insufficientStock(productID, qty, prev)
	}
	current = prev - qty
	if err := writeStock(tx, productID, current); err != nil {
		return 0, 0, err
	}
	return prev, current, nil
}

func insufficientStock(productID uuid.UUID, requested, available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", productID, requested, available),
		ProductID: productID,
		Available: available,
	}
}
