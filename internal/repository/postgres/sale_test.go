package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/pos-api/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestSaleRepository_WithinTx_CommitsOnSuccess(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSaleRepository(sqlxDB)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO sales").
		WithArgs(sqlmock.AnyArg(), "Cash").
		WillReturnRows(sqlmock.NewRows([]string{"sale_id"}).AddRow(int64(12)))
	mock.ExpectCommit()

	err := repo.WithinTx(ctx, func(tx domain.SaleTx) error {
		saleID, err := tx.InsertSale(ctx, decimal.RequireFromString("100"), domain.PaymentCash)
		require.NoError(t, err)
		assert.Equal(t, int64(12), saleID)
		return nil
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepository_WithinTx_RollsBackOnError(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSaleRepository(sqlxDB)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.WithinTx(ctx, func(tx domain.SaleTx) error {
		return domain.ErrInsufficientStock
	})

	// The callback error passes through unchanged
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleTx_FullCommitSequence(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSaleRepository(sqlxDB)
	ctx := context.Background()

	now := time.Now()
	total := decimal.RequireFromString("100")
	price := decimal.RequireFromString("50")

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO sales").
		WithArgs(sqlmock.AnyArg(), "Cash").
		WillReturnRows(sqlmock.NewRows([]string{"sale_id"}).AddRow(int64(5)))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("INSERT INTO sale_items").
		WithArgs(int64(5), int64(7), 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(int64(31)))
	mock.ExpectExec("UPDATE products").
		WithArgs(2, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT sale_id, total, payment_method, created_at").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"sale_id", "total", "payment_method", "created_at"}).
			AddRow(int64(5), "100", "Cash", now))
	mock.ExpectQuery("SELECT item_id, sale_id, product_id, quantity, unit_price, subtotal").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "sale_id", "product_id", "quantity", "unit_price", "subtotal"}).
			AddRow(int64(31), int64(5), int64(7), 2, "50", "100"))
	mock.ExpectCommit()

	var sale *domain.Sale
	err := repo.WithinTx(ctx, func(tx domain.SaleTx) error {
		saleID, err := tx.InsertSale(ctx, total, domain.PaymentCash)
		if err != nil {
			return err
		}

		active, err := tx.ProductActive(ctx, 7)
		if err != nil {
			return err
		}
		require.True(t, active)

		if _, err := tx.InsertLineItem(ctx, saleID, 7, 2, price); err != nil {
			return err
		}

		ok, err := tx.DecrementStockIfAvailable(ctx, 7, 2)
		if err != nil {
			return err
		}
		require.True(t, ok)

		sale, err = tx.GetSaleWithItems(ctx, saleID)
		return err
	})

	require.NoError(t, err)
	require.NotNil(t, sale)
	assert.Equal(t, int64(5), sale.ID)
	assert.True(t, sale.Total.Equal(total))
	require.Len(t, sale.Items, 1)
	assert.Equal(t, int64(7), sale.Items[0].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleTx_DecrementStockIfAvailable_GuardRejects(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSaleRepository(sqlxDB)
	ctx := context.Background()

	mock.ExpectBegin()
	// Guard predicate matches no row: stock below requested quantity
	mock.ExpectExec("UPDATE products").
		WithArgs(3, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.WithinTx(ctx, func(tx domain.SaleTx) error {
		ok, err := tx.DecrementStockIfAvailable(ctx, 7, 3)
		require.NoError(t, err)
		assert.False(t, ok, "zero rows affected means the guard rejected the write")
		return domain.ErrInsufficientStock
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleTx_ProductActive_UnknownProduct(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSaleRepository(sqlxDB)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := repo.WithinTx(ctx, func(tx domain.SaleTx) error {
		active, err := tx.ProductActive(ctx, 99)
		require.NoError(t, err)
		assert.False(t, active)
		return domain.ErrInvalidCart
	})

	assert.ErrorIs(t, err, domain.ErrInvalidCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepository_GetSaleWithItems_NotFound(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSaleRepository(sqlxDB)

	mock.ExpectQuery("SELECT sale_id, total, payment_method, created_at").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"sale_id", "total", "payment_method", "created_at"}))

	sale, err := repo.GetSaleWithItems(context.Background(), 42)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, sale)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepository_ListRecent_GroupsItemsBySale(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSaleRepository(sqlxDB)

	now := time.Now()
	mock.ExpectQuery("SELECT sale_id, total, payment_method, created_at").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"sale_id", "total", "payment_method", "created_at"}).
			AddRow(int64(2), "30", "M-Pesa", now).
			AddRow(int64(1), "100", "Cash", now.Add(-time.Hour)))
	mock.ExpectQuery("SELECT item_id, sale_id, product_id, quantity, unit_price, subtotal").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "sale_id", "product_id", "quantity", "unit_price", "subtotal"}).
			AddRow(int64(10), int64(1), int64(7), 2, "50", "100").
			AddRow(int64(11), int64(2), int64(8), 3, "10", "30"))

	sales, err := repo.ListRecent(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, int64(2), sales[0].ID, "newest first")
	require.Len(t, sales[0].Items, 1)
	assert.Equal(t, int64(8), sales[0].Items[0].ProductID)
	require.Len(t, sales[1].Items, 1)
	assert.Equal(t, int64(7), sales[1].Items[0].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepository_ListRecent_Empty(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewSaleRepository(sqlxDB)

	mock.ExpectQuery("SELECT sale_id, total, payment_method, created_at").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"sale_id", "total", "payment_method", "created_at"}))

	sales, err := repo.ListRecent(context.Background(), 50)

	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.NoError(t, mock.ExpectationsWereMet())
}
