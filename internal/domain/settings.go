package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StoreSettings holds the single-row store profile shown on receipts and
// the dashboard header
type StoreSettings struct {
	StoreName   string          `json:"store_name" db:"store_name" validate:"required,min=1,max=255"`
	Address     *string         `json:"address,omitempty" db:"address"`
	PhoneNumber *string         `json:"phone_number,omitempty" db:"phone_number"`
	Email       *string         `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	TaxRate     decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	Currency    string          `json:"currency" db:"currency" validate:"required,len=3"`
}

// ReceiptSettings holds receipt layout preferences
type ReceiptSettings struct {
	HeaderText *string `json:"header_text,omitempty" db:"header_text"`
	FooterText *string `json:"footer_text,omitempty" db:"footer_text"`
	ShowTax    bool    `json:"show_tax" db:"show_tax"`
	ShowLogo   bool    `json:"show_logo" db:"show_logo"`
	FontSize   int     `json:"font_size" db:"font_size" validate:"gte=6,lte=24"`
	PaperSize  string  `json:"paper_size" db:"paper_size" validate:"required"`
}

// BackupLog records a manual or scheduled backup run
type BackupLog struct {
	ID          int64      `json:"id" db:"id"`
	BackupType  string     `json:"backup_type" db:"backup_type"`
	Status      string     `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// SettingsRepository defines the interface for settings data access
type SettingsRepository interface {
	// GetStoreSettings retrieves the store profile (NotFound before first save)
	GetStoreSettings(ctx context.Context) (*StoreSettings, error)

	// UpsertStoreSettings inserts or replaces the store profile
	UpsertStoreSettings(ctx context.Context, s *StoreSettings) error

	// GetReceiptSettings retrieves receipt preferences (NotFound before first save)
	GetReceiptSettings(ctx context.Context) (*ReceiptSettings, error)

	// UpsertReceiptSettings inserts or replaces receipt preferences
	UpsertReceiptSettings(ctx context.Context, s *ReceiptSettings) error

	// ListPreferences returns system preferences as a key/value map
	ListPreferences(ctx context.Context) (map[string]string, error)

	// StartBackup inserts an in-progress backup record and returns its ID
	StartBackup(ctx context.Context, backupType string) (int64, error)

	// CompleteBackup marks a backup record as completed
	CompleteBackup(ctx context.Context, id int64) error
}
