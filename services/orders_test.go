package services

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cartLockQuery      = `SELECT product_id, quantity, unit_price FROM cart_lines WHERE user_id = \$1 ORDER BY product_id FOR UPDATE`
	productActiveQuery = `SELECT active FROM products WHERE id = \$1 FOR UPDATE`
	orderInsertQuery   = `INSERT INTO orders \(id, user_id, order_number, total\)`
	lineInsertQuery    = `INSERT INTO order_lines \(id, order_id, product_id, quantity, unit_price, subtotal\)`
)

// Happy path: the cart is drained into an order, stock drops by the ordered
// quantity and every line freezes its snapshot price.
func TestPlaceOrder(t *testing.T) {
	db, mock := newMockDB(t)
	orders := NewOrders(db, NewStock(db))
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(cartLockQuery).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "unit_price"}).
			AddRow(productID, 3, "1.50"))
	mock.ExpectQuery(productActiveQuery).WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(true))
	mock.ExpectQuery(lockStockQuery).WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(10))
	mock.ExpectExec(writeStockQuery).WithArgs(productID, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(orderInsertQuery).
		WithArgs(sqlmock.AnyArg(), userID, sqlmock.AnyArg(), decimal.RequireFromString("4.50")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(lineInsertQuery).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), productID, 3,
			decimal.RequireFromString("1.50"), decimal.RequireFromString("4.50")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(quote(`DELETE FROM cart_lines WHERE user_id = $1`)).WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := orders.Place(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("4.50")))
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	require.Len(t, order.Lines, 1)
	assert.Equal(t, productID, order.Lines[0].ProductID)
	assert.Equal(t, 3, order.Lines[0].Quantity)
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("1.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	db, mock := newMockDB(t)
	orders := NewOrders(db, NewStock(db))
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(cartLockQuery).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "unit_price"}))
	mock.ExpectRollback()

	_, err := orders.Place(context.Background(), userID)
	assert.Equal(t, KindEmptyCart, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A product deactivated after it entered the cart aborts the whole
// conversion; nothing is written.
func TestPlaceOrderInactiveProduct(t *testing.T) {
	db, mock := newMockDB(t)
	orders := NewOrders(db, NewStock(db))
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(cartLockQuery).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "unit_price"}).
			AddRow(productID, 1, "1.50"))
	mock.ExpectQuery(productActiveQuery).WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(false))
	mock.ExpectRollback()

	_, err := orders.Place(context.Background(), userID)

	var domain *Error
	require.ErrorAs(t, err, &domain)
	assert.Equal(t, KindProductUnavailable, domain.Kind)
	assert.Equal(t, productID, domain.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderProductVanished(t *testing.T) {
	db, mock := newMockDB(t)
	orders := NewOrders(db, NewStock(db))
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(cartLockQuery).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "unit_price"}).
			AddRow(productID, 1, "1.50"))
	mock.ExpectQuery(productActiveQuery).WithArgs(productID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := orders.Place(context.Background(), userID)
	assert.Equal(t, KindProductUnavailable, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Insufficient stock surfaces as ProductUnavailable carrying the quantity
// still on hand, so the client can offer a reduced amount.
func TestPlaceOrderInsufficientStock(t *testing.T) {
	db, mock := newMockDB(t)
	orders := NewOrders(db, NewStock(db))
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(cartLockQuery).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "unit_price"}).
			AddRow(productID, 6, "1.50"))
	mock.ExpectQuery(productActiveQuery).WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(true))
	mock.ExpectQuery(lockStockQuery).WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(4))
	mock.ExpectRollback()

	_, err := orders.Place(context.Background(), userID)

	var domain *Error
	require.ErrorAs(t, err, &domain)
	assert.Equal(t, KindProductUnavailable, domain.Kind)
	assert.Equal(t, 4, domain.Available)
	assert.Equal(t, productID, domain.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	orders := NewOrders(db, NewStock(db))

	mock.ExpectQuery(quote(`SELECT id, user_id, order_number, total, created_at FROM orders WHERE id = $1 AND user_id = $2`)).
		WillReturnError(sql.ErrNoRows)

	_, err := orders.Get(context.Background(), uuid.New(), uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrders(t *testing.T) {
	db, mock := newMockDB(t)
	orders := NewOrders(db, NewStock(db))
	userID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "order_number", "total", "created_at"}).
		AddRow(uuid.New(), userID, "ORD-20260830-120000-0001", "4.50", now).
		AddRow(uuid.New(), userID, "ORD-20260829-090000-0002", "12.00", now.Add(-24*time.Hour))
	mock.ExpectQuery(quote(`SELECT id, user_id, order_number, total, created_at FROM orders WHERE user_id = $1`)).
		WithArgs(userID).
		WillReturnRows(rows)

	list, err := orders.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Total.Equal(decimal.RequireFromString("4.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
