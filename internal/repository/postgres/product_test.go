package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/pos-api/internal/domain"
)

func TestProductRepository_AdjustStock_Applied(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewProductRepository(sqlxDB)

	mock.ExpectExec("UPDATE products").
		WithArgs(-3, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.AdjustStock(context.Background(), 7, -3)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_AdjustStock_GuardRejects(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewProductRepository(sqlxDB)

	// Floor guard matches no row, but the product exists
	mock.ExpectExec("UPDATE products").
		WithArgs(-10, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT stock_quantity FROM products").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"stock_quantity"}).AddRow(2))

	ok, err := repo.AdjustStock(context.Background(), 7, -10)

	require.NoError(t, err)
	assert.False(t, ok, "rejected guard reports false without an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_AdjustStock_UnknownProduct(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewProductRepository(sqlxDB)

	mock.ExpectExec("UPDATE products").
		WithArgs(5, sqlmock.AnyArg(), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT stock_quantity FROM products").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"stock_quantity"}))

	ok, err := repo.AdjustStock(context.Background(), 99, 5)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetStock(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewProductRepository(sqlxDB)

	mock.ExpectQuery("SELECT stock_quantity FROM products").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"stock_quantity"}).AddRow(42))

	stock, err := repo.GetStock(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, 42, stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Deactivate_NotFound(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewProductRepository(sqlxDB)

	mock.ExpectExec("UPDATE products").
		WithArgs(sqlmock.AnyArg(), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Deactivate(context.Background(), 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewProductRepository(sqlxDB)

	mock.ExpectExec("DELETE FROM products").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), 7)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
