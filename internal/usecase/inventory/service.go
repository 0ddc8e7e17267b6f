package inventory

import (
	"context"
	"errors"
	"fmt"

	playgroundValidator "github.com/go-playground/validator/v10"

	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
	"github.com/dukahub/pos-api/internal/pkg/validator"
)

// ProductCache caches product list pages
type ProductCache interface {
	GetProductList(ctx context.Context, limit, offset int) ([]*domain.Product, error)
	SetProductList(ctx context.Context, limit, offset int, products []*domain.Product) error
	InvalidateProductLists(ctx context.Context) error
}

// Service handles product and inventory management
type Service struct {
	repo     domain.ProductRepository
	cache    ProductCache
	validate *playgroundValidator.Validate
	logger   *logger.Logger
}

// NewService creates a new inventory service
func NewService(repo domain.ProductRepository, cache ProductCache, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		validate: validator.Get(),
		logger:   log,
	}
}

// Create creates a new product
func (s *Service) Create(ctx context.Context, product *domain.Product) error {
	if err := s.validate.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return domain.ErrInvalidInput
	}
	if product.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: negative unit price", domain.ErrInvalidInput)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", err)
		return err
	}

	s.invalidateProductCache(ctx)

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"stock":      product.StockQuantity,
	}).Info("Product created")

	return nil
}

// GetByID retrieves a product by ID
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %d", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	return product, nil
}

// List retrieves active products with read-through caching
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Product, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.cache.GetProductList(ctx, limit, offset)
	if err == nil {
		s.logger.Debugf("Cache hit for product list (limit=%d, offset=%d)", limit, offset)
		total, err := s.repo.Count(ctx)
		if err != nil {
			s.logger.Error("Failed to count products", err)
			return nil, 0, err
		}
		return products, total, nil
	}

	products, err = s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	if err := s.cache.SetProductList(ctx, limit, offset, products); err != nil {
		s.logger.Warnf("Failed to cache product list (limit=%d, offset=%d): %v", limit, offset, err)
	}

	return products, total, nil
}

// ListInventory retrieves the full inventory with category and brand names
func (s *Service) ListInventory(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.ListInventory(ctx)
	if err != nil {
		s.logger.Error("Failed to list inventory", err)
		return nil, err
	}

	return products, nil
}

// Update updates product attributes (stock excluded; see SetStock)
func (s *Service) Update(ctx context.Context, product *domain.Product) error {
	if err := s.validate.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return domain.ErrInvalidInput
	}
	if product.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: negative unit price", domain.ErrInvalidInput)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.logger.Error("Failed to update product", err)
		return err
	}

	s.invalidateProductCache(ctx)

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("Product updated")

	return nil
}

// SetStock moves a product's stock to an absolute target count. The write is
// expressed as a delta through the same guarded primitive the sale path uses,
// so a concurrent sale cannot push the counter negative.
func (s *Service) SetStock(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: negative stock quantity", domain.ErrInvalidInput)
	}

	current, err := s.repo.GetStock(ctx, id)
	if err != nil {
		return nil, err
	}

	delta := quantity - current
	if delta != 0 {
		ok, err := s.repo.AdjustStock(ctx, id, delta)
		if err != nil {
			s.logger.Error("Failed to adjust stock", err)
			return nil, err
		}
		if !ok {
			// A concurrent sale consumed units between the read and the write
			return nil, fmt.Errorf("%w: stock changed concurrently", domain.ErrInsufficientStock)
		}
	}

	s.invalidateProductCache(ctx)

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
		"stock":      quantity,
		"delta":      delta,
	}).Info("Stock updated")

	return s.repo.GetByID(ctx, id)
}

// Deactivate soft-deletes a product
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		s.logger.Error("Failed to deactivate product", err)
		return err
	}

	s.invalidateProductCache(ctx)

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deactivated")

	return nil
}

// Delete hard-deletes a product. Historical sale line items are unaffected.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete product", err)
		return err
	}

	s.invalidateProductCache(ctx)

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deleted")

	return nil
}

// Categories lists all product categories
func (s *Service) Categories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", err)
		return nil, err
	}

	return categories, nil
}

// Brands lists all product brands
func (s *Service) Brands(ctx context.Context) ([]*domain.Brand, error) {
	brands, err := s.repo.Brands(ctx)
	if err != nil {
		s.logger.Error("Failed to list brands", err)
		return nil, err
	}

	return brands, nil
}

// LowStock lists products at or below their reorder level
func (s *Service) LowStock(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	products, err := s.repo.ListBelowReorderLevel(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list low-stock products", err)
		return nil, err
	}

	return products, nil
}

func (s *Service) invalidateProductCache(ctx context.Context) {
	if err := s.cache.InvalidateProductLists(ctx); err != nil {
		s.logger.Warnf("Failed to invalidate product list cache: %v", err)
	}
}
