package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dukahub/pos-api/internal/pkg/logger"
	"github.com/dukahub/pos-api/internal/usecase/checkout"
)

const (
	// Debounce window - collect events for same product within this duration
	debounceWindow = 1 * time.Second

	// Retry configuration
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
)

// AlertWorker processes sale events and evaluates stock levels asynchronously
type AlertWorker struct {
	evaluator *Evaluator
	logger    *logger.Logger

	// Debouncing state
	mu            sync.Mutex
	pendingChecks map[int64]*pendingCheck
	shutdownCh    chan struct{}
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

type pendingCheck struct {
	productID int64
	timestamp time.Time
	timer     *time.Timer
}

// NewAlertWorker creates a new stock alert worker
func NewAlertWorker(evaluator *Evaluator, logger *logger.Logger) *AlertWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &AlertWorker{
		evaluator:     evaluator,
		logger:        logger,
		pendingChecks: make(map[int64]*pendingCheck),
		shutdownCh:    make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// HandleEvent processes a sale event
func (w *AlertWorker) HandleEvent(data []byte) error {
	var event checkout.SaleEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.WithFields(map[string]any{
			"error": err.Error(),
		}).Error("Failed to unmarshal sale event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	w.logger.WithFields(map[string]any{
		"event_type": event.EventType,
		"sale_id":    event.SaleID,
		"products":   len(event.ProductIDs),
		"timestamp":  event.Timestamp,
	}).Info("Received sale event")

	// Schedule a stock check per sold product with debouncing
	for _, productID := range event.ProductIDs {
		w.scheduleCheck(productID, event.Timestamp)
	}

	return nil
}

// scheduleCheck implements debouncing logic
// Multiple sales of the same product within the window result in one DB read
func (w *AlertWorker) scheduleCheck(productID int64, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Check if already shutting down
	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	existing, found := w.pendingChecks[productID]

	// If we have a pending check, keep only the newest event
	if found {
		// Ignore stale events
		if timestamp.Before(existing.timestamp) {
			w.logger.WithFields(map[string]any{
				"product_id":  productID,
				"existing_ts": existing.timestamp,
				"event_ts":    timestamp,
			}).Debug("Ignoring stale event")
			return
		}

		// Cancel existing timer (we'll create a new one)
		existing.timer.Stop()
		w.logger.WithFields(map[string]any{
			"product_id": productID,
		}).Debug("Debouncing: resetting timer for product")
	} else {
		// New product, increment wait group
		w.wg.Add(1)
	}

	// Create new timer for debounced check
	timer := time.AfterFunc(debounceWindow, func() {
		w.processCheck(productID)
	})

	w.pendingChecks[productID] = &pendingCheck{
		productID: productID,
		timestamp: timestamp,
		timer:     timer,
	}
}

// processCheck executes the stock evaluation with retry logic
func (w *AlertWorker) processCheck(productID int64) {
	defer w.wg.Done()

	w.mu.Lock()
	delete(w.pendingChecks, productID)
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"product_id": productID,
	}).Info("Processing stock check")

	// Retry loop with exponential backoff
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]any{
				"product_id": productID,
				"attempt":    attempt + 1,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying stock check")

			select {
			case <-time.After(backoff):
				// Continue with retry
			case <-w.ctx.Done():
				w.logger.Info("Worker context cancelled, aborting retry")
				return
			}

			backoff *= 2
		}

		// Create context with timeout for each attempt
		ctx, cancel := context.WithTimeout(w.ctx, 5*time.Second)
		err := w.evaluator.Evaluate(ctx, productID)
		cancel()

		if err == nil {
			return
		}

		lastErr = err
		w.logger.WithFields(map[string]any{
			"product_id": productID,
			"attempt":    attempt + 1,
			"error":      err.Error(),
		}).Error("Failed to evaluate stock", err)
	}

	// All retries exhausted
	w.logger.WithFields(map[string]any{
		"product_id":  productID,
		"max_retries": maxRetries,
		"error":       lastErr.Error(),
	}).Error("Stock check failed after all retries", lastErr)
}

// Shutdown gracefully shuts down the worker
// Cancels pending timers and waits for in-flight checks to complete
func (w *AlertWorker) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down alert worker...")

	// Signal shutdown to prevent new checks
	close(w.shutdownCh)

	// Cancel context to stop retries
	w.cancel()

	// Cancel all pending timers
	w.mu.Lock()
	pendingCount := len(w.pendingChecks)
	for _, check := range w.pendingChecks {
		check.timer.Stop()
		w.wg.Done() // Decrement counter for cancelled checks
	}
	w.pendingChecks = make(map[int64]*pendingCheck)
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"cancelled_checks": pendingCount,
	}).Info("Cancelled pending checks")

	// Wait for in-flight checks to complete or context timeout
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight checks completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// GetPendingCount returns the number of pending checks (used for monitoring/testing)
func (w *AlertWorker) GetPendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pendingChecks)
}
