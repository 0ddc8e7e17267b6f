package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// SaleCache invalidates cached reads a committed sale makes stale
type SaleCache interface {
	InvalidateAfterSale(ctx context.Context) error
}

// SaleEvent is published after a sale commits. The alert worker re-evaluates
// reorder levels for the products it names.
type SaleEvent struct {
	EventID       uuid.UUID            `json:"event_id"`
	EventType     string               `json:"event_type"`
	Timestamp     time.Time            `json:"timestamp"`
	SaleID        int64                `json:"sale_id"`
	Total         decimal.Decimal      `json:"total"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	ProductIDs    []int64              `json:"product_ids"`
}

// Service converts submitted carts into durable sales. All writes for one
// sale happen in a single transaction; a failed stock guard aborts everything.
type Service struct {
	repo      domain.SaleRepository
	cache     SaleCache
	publisher EventPublisher
	logger    *logger.Logger
}

// NewService creates a new checkout service
func NewService(
	repo domain.SaleRepository,
	cache SaleCache,
	publisher EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    log,
	}
}

// CommitSale validates the cart, then runs the atomic unit of work: sale
// header, line items in cart order, and one guarded stock decrement per item.
// clientTotal, when non-nil, must match the computed line item sum.
//
// Returned errors: ErrInvalidCart for malformed carts and unknown products,
// ErrInsufficientStock when a guard rejects a decrement, ErrStoreUnavailable
// for infrastructure failures. All failure paths leave the store untouched.
func (s *Service) CommitSale(
	ctx context.Context,
	items []domain.CartItem,
	method domain.PaymentMethod,
	clientTotal *decimal.Decimal,
) (*domain.Sale, error) {
	total, err := validateCart(items, method, clientTotal)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"items":          len(items),
			"payment_method": method,
		}).Debug("Rejected cart before store interaction")
		return nil, err
	}

	var sale *domain.Sale
	txErr := s.repo.WithinTx(ctx, func(tx domain.SaleTx) error {
		saleID, err := tx.InsertSale(ctx, total, method)
		if err != nil {
			return err
		}

		for _, item := range items {
			active, err := tx.ProductActive(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if !active {
				return fmt.Errorf("%w: unknown product %d", domain.ErrInvalidCart, item.ProductID)
			}

			if _, err := tx.InsertLineItem(ctx, saleID, item.ProductID, item.Quantity, item.UnitPrice); err != nil {
				return err
			}

			ok, err := tx.DecrementStockIfAvailable(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: product %d", domain.ErrInsufficientStock, item.ProductID)
			}
		}

		sale, err = tx.GetSaleWithItems(ctx, saleID)
		return err
	})

	if txErr != nil {
		if errors.Is(txErr, domain.ErrInsufficientStock) || errors.Is(txErr, domain.ErrInvalidCart) {
			s.logger.WithFields(map[string]interface{}{
				"payment_method": method,
				"reason":         txErr.Error(),
			}).Info("Sale aborted")
			return nil, txErr
		}

		s.logger.Error("Sale transaction failed", txErr)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, txErr)
	}

	// Committed. Cache staleness and event delivery are best-effort from here.
	if err := s.cache.InvalidateAfterSale(ctx); err != nil {
		s.logger.Warnf("Failed to invalidate caches after sale %d: %v", sale.ID, err)
	}

	s.publishEvent(sale)

	s.logger.WithFields(map[string]interface{}{
		"sale_id":        sale.ID,
		"total":          sale.Total,
		"payment_method": sale.PaymentMethod,
		"items":          len(sale.Items),
	}).Info("Sale committed")

	return sale, nil
}

// GetSale retrieves a committed sale with its items
func (s *Service) GetSale(ctx context.Context, saleID int64) (*domain.Sale, error) {
	sale, err := s.repo.GetSaleWithItems(ctx, saleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Sale not found: %d", saleID)
		} else {
			s.logger.Error("Failed to get sale", err)
		}
		return nil, err
	}

	return sale, nil
}

// ListRecent retrieves committed sales newest first
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*domain.Sale, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	sales, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list recent sales", err)
		return nil, err
	}

	return sales, nil
}

// validateCart rejects malformed carts before any store interaction and
// returns the computed total
func validateCart(items []domain.CartItem, method domain.PaymentMethod, clientTotal *decimal.Decimal) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty cart", domain.ErrInvalidCart)
	}

	if !method.Valid() {
		return decimal.Zero, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidCart, method)
	}

	total := decimal.Zero
	for i, item := range items {
		if item.ProductID <= 0 {
			return decimal.Zero, fmt.Errorf("%w: item %d has no product", domain.ErrInvalidCart, i)
		}
		if item.Quantity <= 0 {
			return decimal.Zero, fmt.Errorf("%w: item %d has non-positive quantity", domain.ErrInvalidCart, i)
		}
		if item.UnitPrice.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: item %d has negative price", domain.ErrInvalidCart, i)
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if clientTotal != nil && !clientTotal.Equal(total) {
		return decimal.Zero, fmt.Errorf("%w: submitted total %s does not match computed %s",
			domain.ErrInvalidCart, clientTotal.String(), total.String())
	}

	return total, nil
}

// publishEvent publishes a sale event (non-blocking)
func (s *Service) publishEvent(sale *domain.Sale) {
	productIDs := make([]int64, len(sale.Items))
	for i, item := range sale.Items {
		productIDs[i] = item.ProductID
	}

	event := SaleEvent{
		EventID:       uuid.New(),
		EventType:     "sale.completed",
		Timestamp:     time.Now(),
		SaleID:        sale.ID,
		Total:         sale.Total,
		PaymentMethod: sale.PaymentMethod,
		ProductIDs:    productIDs,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for sale %d", sale.ID)
		return
	}

	// Publish in background to avoid blocking the response
	go func() {
		if err := s.publisher.Publish(context.Background(), "sales.events", data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for sale %d", sale.ID)
		}
	}()
}
