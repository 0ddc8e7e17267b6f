package handler

import (
	"errors"
	"net/http"

	"github.com/dukahub/pos-api/internal/delivery/http/request"
	"github.com/dukahub/pos-api/internal/delivery/http/response"
	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
	"github.com/dukahub/pos-api/internal/usecase/auth"
)

// UserHandler handles HTTP requests for authentication and user management
type UserHandler struct {
	service *auth.Service
	logger  *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(service *auth.Service, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  log,
	}
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	FullName string `json:"fullName" validate:"required,min=1,max=255"`
	Role     string `json:"role" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// Login handles POST /api/v1/auth/login
// @Summary Log in
// @Description Verify credentials and return a signed token with the user profile
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Username and password"
// @Success 200 {object} map[string]interface{} "Token and user"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Create handles POST /api/v1/users
// @Summary Create a user
// @Description Create a staff or admin account. Admin only.
// @Tags Users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User details"
// @Success 201 {object} map[string]interface{} "User created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 409 {object} map[string]string "Username already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := &domain.User{
		Username: req.Username,
		FullName: req.FullName,
		Role:     domain.Role(req.Role),
		IsActive: true,
	}

	if err := h.service.CreateUser(r.Context(), user, req.Password); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, user)
}

// List handles GET /api/v1/users
// @Summary List users
// @Description List all user accounts. Admin only.
// @Tags Users
// @Produce json
// @Success 200 {object} map[string]interface{} "User list"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, users)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *UserHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusConflict, "Username already exists")
	default:
		h.logger.Error("Internal error in user handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
