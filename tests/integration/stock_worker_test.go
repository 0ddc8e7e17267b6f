//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/pos-api/internal/config"
	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/database"
	"github.com/dukahub/pos-api/internal/pkg/logger"
	"github.com/dukahub/pos-api/internal/repository/postgres"
	"github.com/dukahub/pos-api/internal/usecase/checkout"
	"github.com/dukahub/pos-api/internal/worker"
)

func publishSaleEvent(t *testing.T, nc *nats.Conn, saleID int64, productIDs []int64) {
	t.Helper()

	event := checkout.SaleEvent{
		EventID:    uuid.New(),
		EventType:  "sale.completed",
		Timestamp:  time.Now(),
		SaleID:     saleID,
		Total:      decimal.RequireFromString("100"),
		ProductIDs: productIDs,
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)
	require.NoError(t, nc.Publish("sales.events", data))
}

func TestAlertWorker_EndToEnd(t *testing.T) {
	// Load config
	cfg, err := config.Load()
	require.NoError(t, err)

	// Setup logger
	log := logger.New(cfg.Env)

	// Connect to database
	db, err := database.WaitForDB(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	defer db.Close()

	// Connect to NATS
	nc, err := nats.Connect(cfg.NATS.URL)
	require.NoError(t, err)
	defer nc.Close()

	// Create evaluator and worker
	evaluator := worker.NewEvaluator(db, log)
	alertWorker := worker.NewAlertWorker(evaluator, log)

	// Subscribe to sale events
	_, err = nc.Subscribe("sales.events", func(msg *nats.Msg) {
		_ = alertWorker.HandleEvent(msg.Data)
	})
	require.NoError(t, err)

	productRepo := postgres.NewProductRepository(db)
	ctx := context.Background()

	// Create a product sitting below its reorder level
	product := &domain.Product{
		Name:          "Worker Test Sugar 1kg",
		UnitPrice:     decimal.RequireFromString("120.00"),
		StockQuantity: 1,
		ReorderLevel:  5,
		IsActive:      true,
	}
	err = productRepo.Create(ctx, product)
	require.NoError(t, err)

	// Cleanup function
	defer func() {
		_ = productRepo.Delete(ctx, product.ID)
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = alertWorker.Shutdown(shutdownCtx)
	}()

	publishSaleEvent(t, nc, 1, []int64{product.ID})

	// Wait for event processing (debounce window + processing time)
	assert.Eventually(t, func() bool {
		return alertWorker.GetPendingCount() == 0
	}, 5*time.Second, 100*time.Millisecond, "scheduled check should drain")

	// The evaluator must see the same stock level the store holds
	stock, err := evaluator.CurrentStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stock)
}

func TestAlertWorker_DebouncesBurstOfSales(t *testing.T) {
	// Load config
	cfg, err := config.Load()
	require.NoError(t, err)

	// Setup logger
	log := logger.New(cfg.Env)

	// Connect to database
	db, err := database.WaitForDB(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	defer db.Close()

	// Connect to NATS
	nc, err := nats.Connect(cfg.NATS.URL)
	require.NoError(t, err)
	defer nc.Close()

	// Create evaluator and worker
	evaluator := worker.NewEvaluator(db, log)
	alertWorker := worker.NewAlertWorker(evaluator, log)

	// Subscribe to sale events
	_, err = nc.Subscribe("sales.events", func(msg *nats.Msg) {
		_ = alertWorker.HandleEvent(msg.Data)
	})
	require.NoError(t, err)

	productRepo := postgres.NewProductRepository(db)
	ctx := context.Background()

	product := &domain.Product{
		Name:          "Worker Test Bread",
		UnitPrice:     decimal.RequireFromString("60.00"),
		StockQuantity: 50,
		ReorderLevel:  5,
		IsActive:      true,
	}
	err = productRepo.Create(ctx, product)
	require.NoError(t, err)

	// Cleanup function
	defer func() {
		_ = productRepo.Delete(ctx, product.ID)
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = alertWorker.Shutdown(shutdownCtx)
	}()

	// Publish 20 sale events for the same product rapidly
	for i := 0; i < 20; i++ {
		publishSaleEvent(t, nc, int64(i+1), []int64{product.ID})
	}

	// Check that events are being debounced (should be 1 or very few pending)
	time.Sleep(500 * time.Millisecond)
	pendingCount := alertWorker.GetPendingCount()
	assert.LessOrEqual(t, pendingCount, 2, "events should be debounced")

	// Wait for final processing
	assert.Eventually(t, func() bool {
		return alertWorker.GetPendingCount() == 0
	}, 5*time.Second, 100*time.Millisecond)
}
