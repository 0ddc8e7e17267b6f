package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	playgroundValidator "github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
	"github.com/dukahub/pos-api/internal/pkg/validator"
)

// Claims carries the authenticated user identity inside a JWT
type Claims struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service handles credential verification and token issuance. Passwords are
// stored as bcrypt hashes; tokens are HS256-signed with a configured expiry.
type Service struct {
	repo     domain.UserRepository
	secret   []byte
	tokenTTL time.Duration
	validate *playgroundValidator.Validate
	logger   *logger.Logger
}

// NewService creates a new auth service
func NewService(repo domain.UserRepository, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
		validate: validator.Get(),
		logger:   log,
	}
}

// Login verifies credentials and returns a signed token with the user.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Login attempt for unknown user %q", username)
			return "", nil, domain.ErrInvalidCredentials
		}
		s.logger.Error("Failed to look up user", err)
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debugf("Password mismatch for user %q", username)
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.logger.Error("Failed to sign token", err)
		return "", nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warnf("Failed to record last login for user %d: %v", user.ID, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("User logged in")

	return token, user, nil
}

// CreateUser hashes the password and stores a new user
func (s *Service) CreateUser(ctx context.Context, user *domain.User, password string) error {
	if err := s.validate.Struct(user); err != nil {
		s.logger.Error("User validation failed", err)
		return domain.ErrInvalidInput
	}
	if !user.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, user.Role)
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", err)
		return err
	}
	user.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("User created")

	return nil
}

// ListUsers retrieves all users
func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list users", err)
		return nil, err
	}

	return users, nil
}

// ParseToken validates a signed token and returns its claims
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidCredentials
	}

	return claims, nil
}

func (s *Service) issueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
