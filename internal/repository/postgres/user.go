package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukahub/pos-api/internal/domain"
)

// UserRepository implements domain.UserRepository for PostgreSQL
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user with an already-hashed password
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, password_hash, full_name, role, email, phone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING user_id, is_active, created_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.Role,
		user.Email,
		user.Phone,
	).Scan(
		&user.ID,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return nil
}

// GetByUsername retrieves an active user by username, hash included
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT user_id, username, password_hash, full_name, role, email, phone,
			is_active, last_login, created_at
		FROM users
		WHERE username = $1 AND is_active = TRUE
	`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

// List retrieves all users. Password hashes stay out of the result.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT user_id, username, full_name, role, email, phone,
			is_active, last_login, created_at
		FROM users
		ORDER BY created_at ASC
	`

	var users []*domain.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}

	return users, nil
}

// UpdateLastLogin records a successful login timestamp
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_login = $1 WHERE user_id = $2`

	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}
