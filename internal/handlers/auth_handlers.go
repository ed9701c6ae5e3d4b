package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"saasbase/internal/caching"
	"saasbase/internal/common"
	"saasbase/internal/models"
	"saasbase/internal/repositories"
	"saasbase/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	loginAttemptLimit  = 5
	loginAttemptWindow = 15 * time.Minute
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
	binder      services.IdentityBinder
	userRepo    repositories.UserRepository
	cacheSvc    caching.CacheService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, binder services.IdentityBinder, userRepo repositories.UserRepository, cacheSvc caching.CacheService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		binder:      binder,
		userRepo:    userRepo,
		cacheSvc:    cacheSvc,
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	models.TokenResponse
	User *models.User `json:"user"`
}

// Login handles user login with email and password
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	email := models.NormalizeEmail(req.Email)
	rateKey := fmt.Sprintf("login:%s", email)
	limited, err := h.cacheSvc.IsRateLimited(ctx, rateKey, loginAttemptLimit, loginAttemptWindow)
	if err != nil {
		// Redis being down must not lock everyone out.
		log.Printf("login rate limit check for %s failed: %v", email, err)
	}
	if limited {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts, try again later")
	}

	user, err := h.userRepo.GetByEmail(ctx, email)
	if err != nil {
		h.recordFailedLogin(ctx, rateKey, email)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.recordFailedLogin(ctx, rateKey, email)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	tokenResponse, err := h.authService.GenerateTokens(ctx, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusOK, LoginResponse{
		TokenResponse: *tokenResponse,
		User:          user,
	})
}

func (h *AuthHandlers) recordFailedLogin(ctx context.Context, rateKey, email string) {
	if err := h.cacheSvc.IncrementRateLimit(ctx, rateKey, loginAttemptWindow); err != nil {
		log.Printf("recording failed login for %s failed: %v", email, err)
	}
}

// SignupRequest represents the signup request payload
type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// SignupResponse represents the signup response
type SignupResponse struct {
	models.TokenResponse
	User        *models.User          `json:"user"`
	Invitations []services.BindResult `json:"invitations,omitempty"`
}

// Signup registers a new account. Any invitations previously addressed to the
// email are bound to the account; the user still accepts each one explicitly.
func (h *AuthHandlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email, password, first name, and last name are required")
	}
	if len(req.Password) < 6 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 6 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        models.NormalizeEmail(req.Email),
		PasswordHash: string(hashedPassword),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Status:       "active",
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUniqueViolation) {
			return echo.NewHTTPError(http.StatusConflict, "User already exists")
		}
		return serviceError(err)
	}

	bindResults, err := h.binder.BindPendingInvitations(ctx, user)
	if err != nil {
		// The account exists; binding can be retried out of band.
		log.Printf("binding pending invitations for %s failed: %v", user.Email, err)
	}

	tokenResponse, err := h.authService.GenerateTokens(ctx, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusCreated, SignupResponse{
		TokenResponse: *tokenResponse,
		User:          user,
		Invitations:   bindResults,
	})
}

// RefreshRequest represents the refresh request payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Refresh token is required")
	}

	tokenResponse, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}
	return c.JSON(http.StatusOK, tokenResponse)
}

// LogoutRequest represents the logout request payload
type LogoutRequest struct {
	Token         string  `json:"token" validate:"required"`
	TokenTypeHint *string `json:"token_type_hint"`
}

// Logout revokes the presented token.
func (h *AuthHandlers) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Token is required")
	}
	if err := h.authService.RevokeToken(c.Request().Context(), req.Token, req.TokenTypeHint); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to revoke token")
	}
	return c.NoContent(http.StatusNoContent)
}

// MeResponse represents the current-user response
type MeResponse struct {
	User           *models.User `json:"user"`
	ActiveTenantID *uuid.UUID   `json:"active_tenant_id,omitempty"`
}

// Me returns the authenticated user and their active tenant selection, if any.
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return common.SendNotFoundError(c, "User")
	}

	resp := MeResponse{User: user}
	if tenantID, err := h.cacheSvc.GetActiveTenant(ctx, userID); err == nil {
		resp.ActiveTenantID = &tenantID
	}
	return c.JSON(http.StatusOK, resp)
}
