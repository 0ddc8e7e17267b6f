package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
)

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *MockProductRepository) ListInventory(ctx context.Context) ([]*domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, id int64, delta int) (bool, error) {
	args := m.Called(ctx, id, delta)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) GetStock(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) Deactivate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) ListBelowReorderLevel(ctx context.Context, limit int) ([]*domain.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *MockProductRepository) Categories(ctx context.Context) ([]*domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Category), args.Error(1)
}

func (m *MockProductRepository) Brands(ctx context.Context) ([]*domain.Brand, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Brand), args.Error(1)
}

// MockProductCache is a mock implementation of ProductCache
type MockProductCache struct {
	mock.Mock
}

func (m *MockProductCache) GetProductList(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *MockProductCache) SetProductList(ctx context.Context, limit, offset int, products []*domain.Product) error {
	args := m.Called(ctx, limit, offset, products)
	return args.Error(0)
}

func (m *MockProductCache) InvalidateProductLists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestService(repo *MockProductRepository, cache *MockProductCache) *Service {
	return NewService(repo, cache, logger.New("test"))
}

func testProduct() *domain.Product {
	return &domain.Product{
		ID:            7,
		Name:          "Milk 500ml",
		UnitPrice:     decimal.RequireFromString("55.00"),
		StockQuantity: 5,
		ReorderLevel:  3,
		IsActive:      true,
	}
}

func TestCreate_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	product := testProduct()
	product.ID = 0

	mockRepo.On("Create", mock.Anything, product).Return(nil)
	mockCache.On("InvalidateProductLists", mock.Anything).Return(nil)

	err := service.Create(context.Background(), product)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestCreate_NegativePriceRejected(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	product := testProduct()
	product.UnitPrice = decimal.RequireFromString("-1")

	err := service.Create(context.Background(), product)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestCreate_MissingNameRejected(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	product := testProduct()
	product.Name = ""

	err := service.Create(context.Background(), product)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestList_CacheMissFillsCache(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	products := []*domain.Product{testProduct()}

	mockCache.On("GetProductList", mock.Anything, 20, 0).Return(nil, assert.AnError)
	mockRepo.On("List", mock.Anything, 20, 0).Return(products, nil)
	mockRepo.On("Count", mock.Anything).Return(1, nil)
	mockCache.On("SetProductList", mock.Anything, 20, 0, products).Return(nil)

	got, total, err := service.List(context.Background(), 20, 0)

	require.NoError(t, err)
	assert.Equal(t, products, got)
	assert.Equal(t, 1, total)
	mockCache.AssertExpectations(t)
}

func TestList_CacheHitSkipsRepository(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	products := []*domain.Product{testProduct()}

	mockCache.On("GetProductList", mock.Anything, 20, 0).Return(products, nil)
	mockRepo.On("Count", mock.Anything).Return(1, nil)

	got, total, err := service.List(context.Background(), 20, 0)

	require.NoError(t, err)
	assert.Equal(t, products, got)
	assert.Equal(t, 1, total)
	mockRepo.AssertNotCalled(t, "List")
}

func TestList_ClampsBadPagination(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	mockCache.On("GetProductList", mock.Anything, 20, 0).Return(nil, assert.AnError)
	mockRepo.On("List", mock.Anything, 20, 0).Return([]*domain.Product{}, nil)
	mockRepo.On("Count", mock.Anything).Return(0, nil)
	mockCache.On("SetProductList", mock.Anything, 20, 0, mock.Anything).Return(nil)

	_, _, err := service.List(context.Background(), -5, -10)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestSetStock_AppliesDelta(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	updated := testProduct()
	updated.StockQuantity = 2

	mockRepo.On("GetStock", mock.Anything, int64(7)).Return(5, nil)
	mockRepo.On("AdjustStock", mock.Anything, int64(7), -3).Return(true, nil)
	mockRepo.On("GetByID", mock.Anything, int64(7)).Return(updated, nil)
	mockCache.On("InvalidateProductLists", mock.Anything).Return(nil)

	product, err := service.SetStock(context.Background(), 7, 2)

	require.NoError(t, err)
	assert.Equal(t, 2, product.StockQuantity)
	mockRepo.AssertExpectations(t)
}

func TestSetStock_NoOpWhenAlreadyAtTarget(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	mockRepo.On("GetStock", mock.Anything, int64(7)).Return(5, nil)
	mockRepo.On("GetByID", mock.Anything, int64(7)).Return(testProduct(), nil)
	mockCache.On("InvalidateProductLists", mock.Anything).Return(nil)

	_, err := service.SetStock(context.Background(), 7, 5)

	require.NoError(t, err)
	mockRepo.AssertNotCalled(t, "AdjustStock")
}

func TestSetStock_ConcurrentSaleWinsRace(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	// Between the read and the write a sale consumed units, so the guarded
	// decrement would go negative and the repository rejects it
	mockRepo.On("GetStock", mock.Anything, int64(7)).Return(5, nil)
	mockRepo.On("AdjustStock", mock.Anything, int64(7), -4).Return(false, nil)

	product, err := service.SetStock(context.Background(), 7, 1)

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, product)
	mockCache.AssertNotCalled(t, "InvalidateProductLists")
}

func TestSetStock_NegativeTargetRejected(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	product, err := service.SetStock(context.Background(), 7, -1)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, product)
	mockRepo.AssertNotCalled(t, "GetStock")
}

func TestSetStock_UnknownProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	mockRepo.On("GetStock", mock.Anything, int64(99)).Return(0, domain.ErrNotFound)

	product, err := service.SetStock(context.Background(), 99, 5)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, product)
}

func TestDeactivate_InvalidatesCache(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	mockRepo.On("Deactivate", mock.Anything, int64(7)).Return(nil)
	mockCache.On("InvalidateProductLists", mock.Anything).Return(nil)

	err := service.Deactivate(context.Background(), 7)

	assert.NoError(t, err)
	mockCache.AssertExpectations(t)
}

func TestLowStock_ClampsLimit(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := newTestService(mockRepo, mockCache)

	mockRepo.On("ListBelowReorderLevel", mock.Anything, 20).Return([]*domain.Product{}, nil)

	_, err := service.LowStock(context.Background(), 500)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
