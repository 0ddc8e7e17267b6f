package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates how a sale was paid for
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "Cash"
	PaymentMpesa PaymentMethod = "M-Pesa"
)

// Valid reports whether the payment method is one of the known values
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentMpesa
}

// Sale is a committed sale transaction. Sales are immutable once written.
type Sale struct {
	ID            int64           `json:"sale_id" db:"sale_id"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	Items         []*SaleItem     `json:"items" db:"-"`
}

// SaleItem is a single line of a sale. The unit price is captured at commit
// time and survives later product edits or deletion.
type SaleItem struct {
	ID        int64           `json:"item_id" db:"item_id"`
	SaleID    int64           `json:"sale_id" db:"sale_id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// CartItem is one requested line of a sale before it is committed
type CartItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

// SaleTx is the transactional scope a sale commit runs inside. All writes
// issued through it become visible together on commit or not at all.
type SaleTx interface {
	// InsertSale writes the sale header and returns the generated sale ID
	InsertSale(ctx context.Context, total decimal.Decimal, method PaymentMethod) (int64, error)

	// InsertLineItem writes one line item and returns its generated ID
	InsertLineItem(ctx context.Context, saleID, productID int64, quantity int, unitPrice decimal.Decimal) (int64, error)

	// DecrementStockIfAvailable applies stock_quantity -= quantity only when
	// stock_quantity >= quantity, and reports whether the write happened.
	// The guard is evaluated by the store inside the transaction, so two
	// concurrent commits cannot both take the last unit.
	DecrementStockIfAvailable(ctx context.Context, productID int64, quantity int) (bool, error)

	// ProductActive reports whether the product exists and is active
	ProductActive(ctx context.Context, productID int64) (bool, error)

	// GetSaleWithItems reads a sale and its line items within the transaction
	GetSaleWithItems(ctx context.Context, saleID int64) (*Sale, error)
}

// SaleRepository defines the interface for the sale ledger
type SaleRepository interface {
	// WithinTx runs fn inside a single database transaction. A non-nil error
	// from fn rolls everything back and is returned unchanged.
	WithinTx(ctx context.Context, fn func(tx SaleTx) error) error

	// GetSaleWithItems retrieves a committed sale with its items in insertion order
	GetSaleWithItems(ctx context.Context, saleID int64) (*Sale, error)

	// ListRecent retrieves committed sales newest first, items embedded
	ListRecent(ctx context.Context, limit int) ([]*Sale, error)
}
