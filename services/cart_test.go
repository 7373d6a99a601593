package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartUpsertQuery = `INSERT INTO cart_lines \(id, user_id, product_id, quantity, unit_price\)`

// Adding a product for the first time snapshots its current price on the
// line.
func TestCartAddSnapshotsPrice(t *testing.T) {
	db, mock := newMockDB(t)
	cart := NewCart(db)
	userID := uuid.New()
	productID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(quote(`SELECT price, active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"price", "active"}).AddRow("1.50", true))
	mock.ExpectQuery(cartUpsertQuery).
		WithArgs(sqlmock.AnyArg(), userID, productID, 3, decimal.RequireFromString("1.50")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity", "unit_price", "added_at", "updated_at"}).
			AddRow(uuid.New(), 3, "1.50", now, now))
	mock.ExpectCommit()

	line, err := cart.Add(context.Background(), userID, productID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("1.50")))
	assert.True(t, line.Subtotal().Equal(decimal.RequireFromString("4.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Adding the same product again bumps the quantity; the stored snapshot
// survives even when the product's current price has changed.
func TestCartAddAgainKeepsSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	cart := NewCart(db)
	userID := uuid.New()
	productID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(quote(`SELECT price, active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"price", "active"}).AddRow("2.00", true))
	mock.ExpectQuery(cartUpsertQuery).
		WithArgs(sqlmock.AnyArg(), userID, productID, 2, decimal.RequireFromString("2.00")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity", "unit_price", "added_at", "updated_at"}).
			AddRow(uuid.New(), 5, "1.50", now, now))
	mock.ExpectCommit()

	line, err := cart.Add(context.Background(), userID, productID, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("1.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartAddInactiveProduct(t *testing.T) {
	db, mock := newMockDB(t)
	cart := NewCart(db)
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(quote(`SELECT price, active FROM products WHERE id = $1`)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"price", "active"}).AddRow("1.50", false))
	mock.ExpectRollback()

	_, err := cart.Add(context.Background(), userID, productID, 1)
	require.Error(t, err)

	var domain *Error
	require.ErrorAs(t, err, &domain)
	assert.Equal(t, KindProductInactive, domain.Kind)
	assert.Equal(t, productID, domain.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartAddUnknownProduct(t *testing.T) {
	db, mock := newMockDB(t)
	cart := NewCart(db)

	mock.ExpectBegin()
	mock.ExpectQuery(quote(`SELECT price, active FROM products WHERE id = $1`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := cart.Add(context.Background(), uuid.New(), uuid.New(), 1)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartAddZeroQuantity(t *testing.T) {
	db, _ := newMockDB(t)
	cart := NewCart(db)

	_, err := cart.Add(context.Background(), uuid.New(), uuid.New(), 0)
	assert.Equal(t, KindInvalidStock, KindOf(err))
}

func TestCartSetQuantity(t *testing.T) {
	db, mock := newMockDB(t)
	cart := NewCart(db)
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectExec(quote(`UPDATE cart_lines SET quantity = $3`)).
		WithArgs(userID, productID, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, cart.SetQuantity(context.Background(), userID, productID, 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Setting a line to zero removes it.
func TestCartSetQuantityZeroRemoves(t *testing.T) {
	db, mock := newMockDB(t)
	cart := NewCart(db)
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectExec(quote(`DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`)).
		WithArgs(userID, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, cart.SetQuantity(context.Background(), userID, productID, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartSetQuantityMissingLine(t *testing.T) {
	db, mock := newMockDB(t)
	cart := NewCart(db)

	mock.ExpectExec(quote(`UPDATE cart_lines SET quantity = $3`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := cart.SetQuantity(context.Background(), uuid.New(), uuid.New(), 2)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRemoveMissingLine(t *testing.T) {
	db, mock := newMockDB(t)
	cart := NewCart(db)

	mock.ExpectExec(quote(`DELETE FROM cart_lines`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := cart.Remove(context.Background(), uuid.New(), uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The summary is computed from the lines on every read: line count, total
// quantity and the sum of quantity times the snapshotted unit price.
func TestCartGetComputesSummary(t *testing.T) {
	db, mock := newMockDB(t)
	cart := NewCart(db)
	userID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity", "unit_price", "added_at", "updated_at"}).
		AddRow(uuid.New(), userID, uuid.New(), 3, "1.50", now, now).
		AddRow(uuid.New(), userID, uuid.New(), 2, "2.00", now, now)
	mock.ExpectQuery(quote(`SELECT id, user_id, product_id, quantity, unit_price, added_at, updated_at FROM cart_lines`)).
		WithArgs(userID).
		WillReturnRows(rows)

	view, err := cart.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)
	assert.Equal(t, 2, view.Summary.LineCount)
	assert.Equal(t, 5, view.Summary.TotalQuantity)
	assert.True(t, view.Summary.Total.Equal(decimal.RequireFromString("8.50")),
		"got total %s", view.Summary.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartGetEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	cart := NewCart(db)
	userID := uuid.New()

	mock.ExpectQuery(quote(`SELECT id, user_id, product_id, quantity, unit_price, added_at, updated_at FROM cart_lines`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity", "unit_price", "added_at", "updated_at"}))

	view, err := cart.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 0, view.Summary.LineCount)
	assert.True(t, view.Summary.Total.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
