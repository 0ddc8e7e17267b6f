package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewService(mockRepo, "test-secret", time.Hour, logger.New("test"))

	user := &domain.User{
		ID:           3,
		Username:     "cashier1",
		PasswordHash: hashPassword(t, "correct horse"),
		FullName:     "Jane Cashier",
		Role:         domain.RoleStaff,
		IsActive:     true,
	}

	mockRepo.On("GetByUsername", mock.Anything, "cashier1").Return(user, nil)
	mockRepo.On("UpdateLastLogin", mock.Anything, int64(3)).Return(nil)

	token, loggedIn, err := service.Login(context.Background(), "cashier1", "correct horse")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user, loggedIn)

	claims, err := service.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, "cashier1", claims.Username)
	assert.Equal(t, domain.RoleStaff, claims.Role)
	mockRepo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewService(mockRepo, "test-secret", time.Hour, logger.New("test"))

	user := &domain.User{
		ID:           3,
		Username:     "cashier1",
		PasswordHash: hashPassword(t, "correct horse"),
		Role:         domain.RoleStaff,
	}

	mockRepo.On("GetByUsername", mock.Anything, "cashier1").Return(user, nil)

	token, loggedIn, err := service.Login(context.Background(), "cashier1", "wrong password")

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, token)
	assert.Nil(t, loggedIn)
	mockRepo.AssertNotCalled(t, "UpdateLastLogin")
}

func TestLogin_UnknownUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewService(mockRepo, "test-secret", time.Hour, logger.New("test"))

	mockRepo.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	// Unknown user and wrong password must be indistinguishable
	_, _, err := service.Login(context.Background(), "ghost", "whatever")

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_MissingCredentials(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewService(mockRepo, "test-secret", time.Hour, logger.New("test"))

	_, _, err := service.Login(context.Background(), "", "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	mockRepo.AssertNotCalled(t, "GetByUsername")
}

func TestLogin_LastLoginFailureTolerated(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewService(mockRepo, "test-secret", time.Hour, logger.New("test"))

	user := &domain.User{
		ID:           3,
		Username:     "cashier1",
		PasswordHash: hashPassword(t, "correct horse"),
		Role:         domain.RoleStaff,
	}

	mockRepo.On("GetByUsername", mock.Anything, "cashier1").Return(user, nil)
	mockRepo.On("UpdateLastLogin", mock.Anything, int64(3)).Return(assert.AnError)

	token, _, err := service.Login(context.Background(), "cashier1", "correct horse")

	require.NoError(t, err, "last-login bookkeeping must not block the login")
	assert.NotEmpty(t, token)
}

func TestCreateUser_HashesPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewService(mockRepo, "test-secret", time.Hour, logger.New("test"))

	user := &domain.User{
		Username: "newstaff",
		FullName: "New Staff",
		Role:     domain.RoleStaff,
	}

	mockRepo.On("Create", mock.Anything, user).Return(nil)

	err := service.CreateUser(context.Background(), user, "longenough99")

	require.NoError(t, err)
	assert.NotEqual(t, "longenough99", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough99")))
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_ShortPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewService(mockRepo, "test-secret", time.Hour, logger.New("test"))

	user := &domain.User{
		Username: "newstaff",
		FullName: "New Staff",
		Role:     domain.RoleStaff,
	}

	err := service.CreateUser(context.Background(), user, "short")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestCreateUser_UnknownRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewService(mockRepo, "test-secret", time.Hour, logger.New("test"))

	user := &domain.User{
		Username: "newstaff",
		FullName: "New Staff",
		Role:     domain.Role("superuser"),
	}

	err := service.CreateUser(context.Background(), user, "longenough99")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestParseToken_Garbage(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewService(mockRepo, "test-secret", time.Hour, logger.New("test"))

	claims, err := service.ParseToken("not.a.token")

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Nil(t, claims)
}

func TestParseToken_Expired(t *testing.T) {
	mockRepo := new(MockUserRepository)
	// Negative TTL issues tokens that are already expired
	service := NewService(mockRepo, "test-secret", -time.Hour, logger.New("test"))

	user := &domain.User{
		ID:           3,
		Username:     "cashier1",
		PasswordHash: hashPassword(t, "correct horse"),
		Role:         domain.RoleStaff,
	}

	mockRepo.On("GetByUsername", mock.Anything, "cashier1").Return(user, nil)
	mockRepo.On("UpdateLastLogin", mock.Anything, int64(3)).Return(nil)

	token, _, err := service.Login(context.Background(), "cashier1", "correct horse")
	require.NoError(t, err)

	claims, err := service.ParseToken(token)

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Nil(t, claims)
}

func TestParseToken_WrongSecret(t *testing.T) {
	mockRepo := new(MockUserRepository)
	issuer := NewService(mockRepo, "secret-a", time.Hour, logger.New("test"))
	verifier := NewService(mockRepo, "secret-b", time.Hour, logger.New("test"))

	user := &domain.User{
		ID:           3,
		Username:     "cashier1",
		PasswordHash: hashPassword(t, "correct horse"),
		Role:         domain.RoleStaff,
	}

	mockRepo.On("GetByUsername", mock.Anything, "cashier1").Return(user, nil)
	mockRepo.On("UpdateLastLogin", mock.Anything, int64(3)).Return(nil)

	token, _, err := issuer.Login(context.Background(), "cashier1", "correct horse")
	require.NoError(t, err)

	claims, err := verifier.ParseToken(token)

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Nil(t, claims)
}
