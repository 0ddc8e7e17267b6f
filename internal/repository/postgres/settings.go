package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukahub/pos-api/internal/domain"
)

// SettingsRepository implements domain.SettingsRepository for PostgreSQL.
// store_settings and receipt_settings are single-row tables keyed by a
// constant id.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new PostgreSQL settings repository
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetStoreSettings retrieves the store profile
func (r *SettingsRepository) GetStoreSettings(ctx context.Context) (*domain.StoreSettings, error) {
	query := `
		SELECT store_name, address, phone_number, email, tax_rate, currency
		FROM store_settings
		WHERE id = 1
	`

	var settings domain.StoreSettings
	err := r.db.GetContext(ctx, &settings, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &settings, nil
}

// UpsertStoreSettings inserts or replaces the store profile
func (r *SettingsRepository) UpsertStoreSettings(ctx context.Context, s *domain.StoreSettings) error {
	query := `
		INSERT INTO store_settings (id, store_name, address, phone_number, email, tax_rate, currency)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			address = EXCLUDED.address,
			phone_number = EXCLUDED.phone_number,
			email = EXCLUDED.email,
			tax_rate = EXCLUDED.tax_rate,
			currency = EXCLUDED.currency
	`

	_, err := r.db.ExecContext(ctx, query, s.StoreName, s.Address, s.PhoneNumber, s.Email, s.TaxRate, s.Currency)
	return err
}

// GetReceiptSettings retrieves receipt preferences
func (r *SettingsRepository) GetReceiptSettings(ctx context.Context) (*domain.ReceiptSettings, error) {
	query := `
		SELECT header_text, footer_text, show_tax, show_logo, font_size, paper_size
		FROM receipt_settings
		WHERE id = 1
	`

	var settings domain.ReceiptSettings
	err := r.db.GetContext(ctx, &settings, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &settings, nil
}

// UpsertReceiptSettings inserts or replaces receipt preferences
func (r *SettingsRepository) UpsertReceiptSettings(ctx context.Context, s *domain.ReceiptSettings) error {
	query := `
		INSERT INTO receipt_settings (id, header_text, footer_text, show_tax, show_logo, font_size, paper_size)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			header_text = EXCLUDED.header_text,
			footer_text = EXCLUDED.footer_text,
			show_tax = EXCLUDED.show_tax,
			show_logo = EXCLUDED.show_logo,
			font_size = EXCLUDED.font_size,
			paper_size = EXCLUDED.paper_size
	`

	_, err := r.db.ExecContext(ctx, query, s.HeaderText, s.FooterText, s.ShowTax, s.ShowLogo, s.FontSize, s.PaperSize)
	return err
}

// ListPreferences returns system preferences as a key/value map
func (r *SettingsRepository) ListPreferences(ctx context.Context) (map[string]string, error) {
	query := `SELECT setting_key, setting_value FROM system_preferences`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		prefs[key] = value
	}

	return prefs, rows.Err()
}

// StartBackup inserts an in-progress backup record and returns its ID
func (r *SettingsRepository) StartBackup(ctx context.Context, backupType string) (int64, error) {
	query := `
		INSERT INTO backup_logs (backup_type, status)
		VALUES ($1, 'in_progress')
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, backupType).Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// CompleteBackup marks a backup record as completed
func (r *SettingsRepository) CompleteBackup(ctx context.Context, id int64) error {
	query := `
		UPDATE backup_logs
		SET status = 'completed', completed_at = $1
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}
